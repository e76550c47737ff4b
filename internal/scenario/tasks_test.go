package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentworkshop/studioload/internal/studio"
)

// studioStub fakes the subset of the Studio API the edit lifecycle touches.
type studioStub struct {
	*httptest.Server
	jobStatus string
	creates   atomic.Int64
	deletes   atomic.Int64
	polls     atomic.Int64
}

func newStudioStub(t *testing.T, jobStatus string) *studioStub {
	t.Helper()
	stub := &studioStub{jobStatus: jobStatus}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/channel", func(w http.ResponseWriter, r *http.Request) {
		stub.creates.Add(1)
		w.Write([]byte(`{"id":"chan-9","main_tree":{"id":"root-9"}}`))
	})
	mux.HandleFunc("DELETE /api/channel/chan-9/", func(w http.ResponseWriter, r *http.Request) {
		stub.deletes.Add(1)
	})
	mux.HandleFunc("POST /api/duplicate_nodes/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1"}`))
	})
	mux.HandleFunc("GET /api/task/job-1", func(w http.ResponseWriter, r *http.Request) {
		stub.polls.Add(1)
		fmt.Fprintf(w, `{"status":%q}`, stub.jobStatus)
	})

	stub.Server = httptest.NewServer(mux)
	return stub
}

func editOptions() Options {
	return Options{
		Poller: studio.Poller{Interval: time.Millisecond, Timeout: 20 * time.Millisecond},
	}
}

func TestChannelEditLifecycle(t *testing.T) {
	stub := newStudioStub(t, "SUCCESS")
	defer stub.Close()

	s := studio.NewSession(stub.URL, studio.Credentials{})
	opts := editOptions()

	err := opts.channelEdit(context.Background(), s)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stub.creates.Load(), "one channel created")
	assert.EqualValues(t, 1, stub.deletes.Load(), "channel deleted after the job")
	assert.EqualValues(t, 1, stub.polls.Load(), "job polled to completion")
}

func TestChannelEditDeletesWhenJobFails(t *testing.T) {
	stub := newStudioStub(t, "FAILED")
	defer stub.Close()

	s := studio.NewSession(stub.URL, studio.Credentials{})
	opts := editOptions()

	err := opts.channelEdit(context.Background(), s)
	require.Error(t, err, "a failed copy job is a failed iteration")
	assert.EqualValues(t, 1, stub.deletes.Load(), "channel deleted even though the job failed")
}

func TestChannelEditDeletesWhenJobTimesOut(t *testing.T) {
	stub := newStudioStub(t, "RUNNING")
	defer stub.Close()

	s := studio.NewSession(stub.URL, studio.Credentials{})
	opts := editOptions()

	err := opts.channelEdit(context.Background(), s)
	require.ErrorIs(t, err, studio.ErrTaskTimeout)
	assert.EqualValues(t, 1, stub.deletes.Load(), "channel deleted even though the job timed out")
}

func TestChannelEditUniqueNames(t *testing.T) {
	names := map[string]int{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/channel", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		names[body.Name]++
		w.Write([]byte(`{"id":"chan-9","main_tree":{"id":"root-9"}}`))
	})
	mux.HandleFunc("DELETE /api/channel/chan-9/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /api/duplicate_nodes/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1"}`))
	})
	mux.HandleFunc("GET /api/task/job-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"SUCCESS"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := studio.NewSession(server.URL, studio.Credentials{})
	opts := editOptions()

	for i := 0; i < 3; i++ {
		require.NoError(t, opts.channelEdit(context.Background(), s))
	}

	assert.Len(t, names, 3, "each run names its channel uniquely")
	for name := range names {
		assert.True(t, strings.HasPrefix(name, DefaultChannelNamePrefix), "name %q carries the cleanup prefix", name)
	}
}

func TestBrowseTasksNoOpOnEmptyAccount(t *testing.T) {
	// An account with no channels anywhere: browse tasks must succeed
	// without touching channel or node endpoints.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case studio.PublicChannelsPath, studio.EditChannelsPath:
			w.Write([]byte(`[]`))
		default:
			t.Errorf("Unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s := studio.NewSession(server.URL, studio.Credentials{})
	ctx := context.Background()

	assert.NoError(t, openChannel(ctx, s))
	assert.NoError(t, openAccessibleChannels(ctx, s))
	assert.NoError(t, openSubtopic(ctx, s))
	assert.NoError(t, previewContentItem(ctx, s))
}
