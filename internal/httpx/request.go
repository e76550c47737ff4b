package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request represents an HTTP request before it is bound to a base URL.
type Request struct {
	Method      string
	Path        string
	QueryParams url.Values
	Headers     map[string]string
	Body        interface{}
}

// NewRequest creates a new HTTP request for the given method and path.
// Path may also be an absolute URL, in which case the client's base URL is
// ignored; content previews follow storage URLs that can live on another
// host.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:      method,
		Path:        path,
		QueryParams: make(url.Values),
		Headers:     make(map[string]string),
	}
}

// WithHeader adds a header to the request.
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithQueryParam adds a query parameter to the request.
func (r *Request) WithQueryParam(key, value string) *Request {
	r.QueryParams.Add(key, value)
	return r
}

// WithBody sets the body of the request. Strings, byte slices, and readers
// are sent verbatim; anything else is JSON-marshaled with a JSON
// content type.
func (r *Request) WithBody(body interface{}) *Request {
	r.Body = body
	return r
}

// WithFormBody sets url-encoded form values as the body and content type.
func (r *Request) WithFormBody(form url.Values) *Request {
	r.Body = form.Encode()
	r.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	return r
}

// Build constructs an http.Request against the given base URL.
func (r *Request) Build(baseURL string) (*http.Request, error) {
	var reqURL *url.URL
	var err error

	if strings.Contains(r.Path, "://") {
		reqURL, err = url.Parse(r.Path)
	} else {
		reqURL, err = url.Parse(baseURL)
		if err == nil {
			if reqURL.Path == "" {
				reqURL.Path = r.Path
			} else {
				reqURL.Path = strings.TrimRight(reqURL.Path, "/") + "/" + strings.TrimLeft(r.Path, "/")
			}
		}
	}
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	for key, values := range r.QueryParams {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	reqURL.RawQuery = query.Encode()

	var bodyReader io.Reader
	if r.Body != nil {
		switch body := r.Body.(type) {
		case string:
			bodyReader = strings.NewReader(body)
		case []byte:
			bodyReader = bytes.NewReader(body)
		case io.Reader:
			bodyReader = body
		default:
			jsonBody, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			bodyReader = bytes.NewReader(jsonBody)
			if _, ok := r.Headers["Content-Type"]; !ok {
				r.Headers["Content-Type"] = "application/json"
			}
		}
	}

	req, err := http.NewRequest(r.Method, reqURL.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
