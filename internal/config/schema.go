package config

// configSchema validates the YAML config document (after conversion to
// plain JSON values) before it is decoded. Duration fields are strings in
// Go duration syntax.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "baseUrl": {
      "type": "string",
      "pattern": "^https?://"
    },
    "users": {
      "type": "integer",
      "minimum": 1
    },
    "duration": {"$ref": "#/$defs/duration"},
    "minWait": {"$ref": "#/$defs/duration"},
    "maxWait": {"$ref": "#/$defs/duration"},
    "spawnInterval": {"$ref": "#/$defs/duration"},
    "requestTimeout": {"$ref": "#/$defs/duration"},
    "pollInterval": {"$ref": "#/$defs/duration"},
    "pollTimeout": {"$ref": "#/$defs/duration"},
    "channelNamePrefix": {
      "type": "string",
      "minLength": 1
    },
    "contentRootId": {
      "type": "string",
      "minLength": 1
    },
    "weights": {
      "type": "object",
      "additionalProperties": {
        "type": "integer",
        "minimum": 0
      }
    },
    "insecureSkipVerify": {"type": "boolean"},
    "quiet": {"type": "boolean"}
  },
  "$defs": {
    "duration": {
      "type": "string",
      "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))+$"
    }
  }
}`
