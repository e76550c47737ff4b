// Package config loads and validates the load-run configuration from YAML,
// flags, and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Credential environment variables. These names are the external contract
// shared with existing deployment tooling.
const (
	EnvUsername = "LOCUST_USERNAME"
	EnvPassword = "LOCUST_PASSWORD"

	defaultUsername = "a@a.com"
	defaultPassword = "a"
)

// Config is the full configuration for one load run.
type Config struct {
	// BaseURL is the root URL of the target application.
	BaseURL string

	// Users is the number of concurrent simulated users.
	Users int

	// Duration bounds the run. Zero means run until interrupted.
	Duration time.Duration

	// MinWait and MaxWait bound the think time between task iterations.
	MinWait time.Duration
	MaxWait time.Duration

	// SpawnInterval staggers user start.
	SpawnInterval time.Duration

	// RequestTimeout applies to every HTTP request.
	RequestTimeout time.Duration

	// PollInterval and PollTimeout configure async job polling.
	PollInterval time.Duration
	PollTimeout  time.Duration

	// ChannelNamePrefix names test-created channels; cleanup matches on it.
	ChannelNamePrefix string

	// ContentRootID is the node duplicated into created channels.
	ContentRootID string

	// Weights overrides per-task selection weights by task name.
	Weights map[string]int

	// InsecureSkipVerify disables TLS verification, for staging targets
	// with self-signed certificates.
	InsecureSkipVerify bool

	// Quiet suppresses live console output.
	Quiet bool

	// Username and Password come from the environment, never from YAML.
	Username string
	Password string
}

// fileConfig mirrors the YAML document. Durations are strings ("5s", "2m");
// pointer fields distinguish unset from zero so the file merges over
// defaults.
type fileConfig struct {
	BaseURL            *string        `yaml:"baseUrl"`
	Users              *int           `yaml:"users"`
	Duration           *string        `yaml:"duration"`
	MinWait            *string        `yaml:"minWait"`
	MaxWait            *string        `yaml:"maxWait"`
	SpawnInterval      *string        `yaml:"spawnInterval"`
	RequestTimeout     *string        `yaml:"requestTimeout"`
	PollInterval       *string        `yaml:"pollInterval"`
	PollTimeout        *string        `yaml:"pollTimeout"`
	ChannelNamePrefix  *string        `yaml:"channelNamePrefix"`
	ContentRootID      *string        `yaml:"contentRootId"`
	Weights            map[string]int `yaml:"weights"`
	InsecureSkipVerify *bool          `yaml:"insecureSkipVerify"`
	Quiet              *bool          `yaml:"quiet"`
}

// Default returns a config with standard browser-user pacing and the
// credentials from the environment, read once.
func Default() Config {
	return Config{
		Users:          10,
		Duration:       5 * time.Minute,
		MinWait:        5 * time.Second,
		MaxWait:        20 * time.Second,
		RequestTimeout: 60 * time.Second,
		PollInterval:   time.Second,
		PollTimeout:    120 * time.Second,
		Username:       envOr(EnvUsername, defaultUsername),
		Password:       envOr(EnvPassword, defaultPassword),
	}
}

// Load reads a YAML config file, validates it against the config schema,
// and merges it over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes YAML config bytes over the defaults.
func Parse(data []byte) (Config, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := schema().Validate(toJSONValue(raw)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	cfg := Default()
	if err := cfg.apply(file); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// apply merges the file values over the receiver.
func (c *Config) apply(file fileConfig) error {
	if file.BaseURL != nil {
		c.BaseURL = *file.BaseURL
	}
	if file.Users != nil {
		c.Users = *file.Users
	}
	if file.ChannelNamePrefix != nil {
		c.ChannelNamePrefix = *file.ChannelNamePrefix
	}
	if file.ContentRootID != nil {
		c.ContentRootID = *file.ContentRootID
	}
	if file.Weights != nil {
		c.Weights = file.Weights
	}
	if file.InsecureSkipVerify != nil {
		c.InsecureSkipVerify = *file.InsecureSkipVerify
	}
	if file.Quiet != nil {
		c.Quiet = *file.Quiet
	}

	durations := []struct {
		name  string
		value *string
		dst   *time.Duration
	}{
		{"duration", file.Duration, &c.Duration},
		{"minWait", file.MinWait, &c.MinWait},
		{"maxWait", file.MaxWait, &c.MaxWait},
		{"spawnInterval", file.SpawnInterval, &c.SpawnInterval},
		{"requestTimeout", file.RequestTimeout, &c.RequestTimeout},
		{"pollInterval", file.PollInterval, &c.PollInterval},
		{"pollTimeout", file.PollTimeout, &c.PollTimeout},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}
	if c.Users < 1 {
		return fmt.Errorf("users must be at least 1, got %d", c.Users)
	}
	if c.MaxWait < c.MinWait {
		return fmt.Errorf("maxWait (%s) must not be less than minWait (%s)", c.MaxWait, c.MinWait)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive, got %s", c.PollInterval)
	}
	for name, weight := range c.Weights {
		if weight < 0 {
			return fmt.Errorf("weight for task %q must not be negative, got %d", name, weight)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// toJSONValue normalizes YAML-decoded values into the shapes the schema
// validator expects: string-keyed maps all the way down.
func toJSONValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[k] = toJSONValue(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, val := range v {
			s[i] = toJSONValue(val)
		}
		return s
	default:
		return v
	}
}

var compiledSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

func schema() *jsonschema.Schema {
	return compiledSchema
}
