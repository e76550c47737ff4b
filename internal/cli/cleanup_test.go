package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// newCleanupStub serves a login flow and an edit-channel list with one
// leftover test channel and one real channel.
func newCleanupStub(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var deleted []string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
	})
	mux.HandleFunc("POST /accounts/login/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /get_user_edit_channels/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"left-1","name":"Locust Test Channel 1a2b3c4d"},
			{"id":"real-1","name":"World History"}
		]`))
	})
	mux.HandleFunc("DELETE /api/channel/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/channel/"), "/")
		mu.Lock()
		deleted = append(deleted, id)
		mu.Unlock()
	})

	server := httptest.NewServer(mux)
	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), deleted...)
	}
}

func TestCleanupDeletesOnlyPrefixedChannels(t *testing.T) {
	server, deleted := newCleanupStub(t)
	defer server.Close()

	out, err := execute(t, "cleanup", "--base-url", server.URL, "--dry-run=false")
	if err != nil {
		t.Fatalf("cleanup returned error: %v\n%s", err, out)
	}

	got := deleted()
	if len(got) != 1 || got[0] != "left-1" {
		t.Errorf("Expected only left-1 deleted, got %v", got)
	}
	if !strings.Contains(out, "1 deleted") {
		t.Errorf("Expected deletion count in output:\n%s", out)
	}
}

func TestCleanupDryRun(t *testing.T) {
	server, deleted := newCleanupStub(t)
	defer server.Close()

	out, err := execute(t, "cleanup", "--base-url", server.URL, "--dry-run")
	if err != nil {
		t.Fatalf("cleanup returned error: %v\n%s", err, out)
	}

	if got := deleted(); len(got) != 0 {
		t.Errorf("Dry run must delete nothing, got %v", got)
	}
	if !strings.Contains(out, "would delete left-1") {
		t.Errorf("Expected dry-run listing in output:\n%s", out)
	}
}
