package studio

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/contentworkshop/studioload/internal/httpx"
)

const (
	loginPath       = "/accounts/login/"
	csrfCookieName  = "csrftoken"
	csrfHeaderName  = "X-CSRFToken"
	jsonContentType = "application/json"
)

// Credentials identify the test account a session logs in with.
type Credentials struct {
	Username string
	Password string
}

// Session is one simulated user's authenticated context against the Studio
// application. It owns its HTTP client and cookie jar and must not be
// shared between simulated users.
type Session struct {
	client *httpx.Client
	creds  Credentials
	rng    *rand.Rand
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClient replaces the session's HTTP client. Intended for tests.
func WithClient(client *httpx.Client) SessionOption {
	return func(s *Session) {
		s.client = client
	}
}

// WithRand sets the random source used for random topic/resource selection.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *Session) {
		s.rng = rng
	}
}

// NewSession creates an unauthenticated session against baseURL.
// Call Login before issuing API requests.
func NewSession(baseURL string, creds Credentials, options ...SessionOption) *Session {
	s := &Session{
		client: httpx.NewClient(httpx.WithBaseURL(baseURL)),
		creds:  creds,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// BaseURL returns the base URL this session is bound to.
func (s *Session) BaseURL() string {
	return s.client.BaseURL()
}

// OpenLoginPage fetches the login page. The server sets the CSRF cookie on
// this response; it is also a scenario task in its own right, the most hit
// endpoint in real traffic.
func (s *Session) OpenLoginPage(ctx context.Context) error {
	_, err := s.get(ctx, loginPath)
	return err
}

// Login authenticates the session: fetch the login page to harvest the CSRF
// cookie, then submit the credentials form.
func (s *Session) Login(ctx context.Context) error {
	if err := s.OpenLoginPage(ctx); err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}

	csrf := s.client.Cookie(csrfCookieName)
	if csrf == "" {
		return fmt.Errorf("login page set no %s cookie", csrfCookieName)
	}

	form := url.Values{}
	form.Set("username", s.creds.Username)
	form.Set("password", s.creds.Password)
	form.Set("csrfmiddlewaretoken", csrf)

	req := httpx.NewRequest("POST", loginPath).
		WithFormBody(form).
		WithHeader("Referer", s.client.BaseURL()+loginPath)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	if resp.IsServerError() || resp.IsClientError() {
		return fmt.Errorf("login failed: %s", resp.Status)
	}
	return nil
}

// get issues a GET and fails on transport errors or non-2xx/3xx statuses.
func (s *Session) get(ctx context.Context, path string) (*httpx.Response, error) {
	resp, err := s.client.Do(ctx, httpx.NewRequest("GET", path))
	if err != nil {
		return nil, err
	}
	if resp.IsClientError() || resp.IsServerError() {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return resp, nil
}

// postJSON issues a POST with a JSON body and the CSRF/Referer headers the
// server requires on mutating requests.
func (s *Session) postJSON(ctx context.Context, path string, payload interface{}) (*httpx.Response, error) {
	req := httpx.NewRequest("POST", path).
		WithBody(payload).
		WithHeader("Content-Type", jsonContentType).
		WithHeader(csrfHeaderName, s.client.Cookie(csrfCookieName)).
		WithHeader("Referer", s.client.BaseURL())

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.IsClientError() || resp.IsServerError() {
		return nil, fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	return resp, nil
}

// delete issues a DELETE with the CSRF/Referer headers.
func (s *Session) delete(ctx context.Context, path string) error {
	req := httpx.NewRequest("DELETE", path).
		WithHeader("Content-Type", jsonContentType).
		WithHeader(csrfHeaderName, s.client.Cookie(csrfCookieName)).
		WithHeader("Referer", s.client.BaseURL())

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.IsClientError() || resp.IsServerError() {
		return fmt.Errorf("DELETE %s: %s", path, resp.Status)
	}
	return nil
}

// choice picks one index in [0, n) using the session's random source.
func (s *Session) choice(n int) int {
	if n <= 1 {
		return 0
	}
	return s.rng.Intn(n)
}
