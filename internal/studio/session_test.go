package studio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newLoginServer(t *testing.T, onLogin func(r *http.Request, form url.Values)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-123", Path: "/"})
		w.Write([]byte("<html>login</html>"))
	})
	mux.HandleFunc("POST /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing login form: %v", err)
		}
		if onLogin != nil {
			onLogin(r, r.PostForm)
		}
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func TestSessionLogin(t *testing.T) {
	var gotForm url.Values
	var gotContentType, gotReferer string

	server := newLoginServer(t, func(r *http.Request, form url.Values) {
		gotForm = form
		gotContentType = r.Header.Get("Content-Type")
		gotReferer = r.Header.Get("Referer")
	})
	defer server.Close()

	s := NewSession(server.URL, Credentials{Username: "a@a.com", Password: "a"})
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if gotForm.Get("username") != "a@a.com" {
		t.Errorf("Expected username a@a.com, got %q", gotForm.Get("username"))
	}
	if gotForm.Get("password") != "a" {
		t.Errorf("Expected password a, got %q", gotForm.Get("password"))
	}
	if gotForm.Get("csrfmiddlewaretoken") != "tok-123" {
		t.Errorf("Expected csrfmiddlewaretoken from cookie, got %q", gotForm.Get("csrfmiddlewaretoken"))
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Expected form content type, got %q", gotContentType)
	}
	wantReferer := server.URL + "/accounts/login/"
	if gotReferer != wantReferer {
		t.Errorf("Expected Referer %q, got %q", wantReferer, gotReferer)
	}
}

func TestSessionLoginMissingCSRFCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewSession(server.URL, Credentials{Username: "a@a.com", Password: "a"})
	if err := s.Login(context.Background()); err == nil {
		t.Fatal("Expected error when login page sets no CSRF cookie")
	}
}

func TestSessionLoginRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
	})
	mux.HandleFunc("POST /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSession(server.URL, Credentials{Username: "wrong", Password: "wrong"})
	if err := s.Login(context.Background()); err == nil {
		t.Fatal("Expected error for rejected credentials")
	}
}

func TestMutatingRequestsCarryCSRFHeaders(t *testing.T) {
	var postCSRF, postReferer, deleteCSRF string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-xyz", Path: "/"})
	})
	mux.HandleFunc("POST /accounts/login/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /api/channel", func(w http.ResponseWriter, r *http.Request) {
		postCSRF = r.Header.Get("X-CSRFToken")
		postReferer = r.Header.Get("Referer")
		w.Write([]byte(`{"id":"c1","main_tree":{"id":"root1"}}`))
	})
	mux.HandleFunc("DELETE /api/channel/c1/", func(w http.ResponseWriter, r *http.Request) {
		deleteCSRF = r.Header.Get("X-CSRFToken")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSession(server.URL, Credentials{Username: "a@a.com", Password: "a"})
	ctx := context.Background()
	if err := s.Login(ctx); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	ch, err := s.CreateChannel(ctx, "Test Channel")
	if err != nil {
		t.Fatalf("CreateChannel returned error: %v", err)
	}
	if err := s.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("DeleteChannel returned error: %v", err)
	}

	if postCSRF != "tok-xyz" {
		t.Errorf("Expected X-CSRFToken tok-xyz on POST, got %q", postCSRF)
	}
	if postReferer != server.URL {
		t.Errorf("Expected Referer %q on POST, got %q", server.URL, postReferer)
	}
	if deleteCSRF != "tok-xyz" {
		t.Errorf("Expected X-CSRFToken tok-xyz on DELETE, got %q", deleteCSRF)
	}
}
