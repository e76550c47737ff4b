package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/contentworkshop/studioload/internal/httpx"
)

// Terminal async job statuses. Anything else is treated as in progress;
// the server also reports transient states like QUEUED and RUNNING.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// ErrTaskTimeout is returned by Poller.Run when the polling ceiling elapses
// before the job reaches a terminal status. The status string returned
// alongside it is the last one observed.
var ErrTaskTimeout = errors.New("studio: async task did not finish before the polling ceiling")

// DuplicateNodesRequest is the payload that starts a bulk node copy job.
type DuplicateNodesRequest struct {
	NodeIDs      []string `json:"node_ids"`
	SortOrder    int      `json:"sort_order"`
	TargetParent string   `json:"target_parent"`
	ChannelID    string   `json:"channel_id"`
}

// Poller submits a request that starts server-side asynchronous work and
// polls the task status endpoint until the job reaches a terminal status or
// the ceiling elapses.
//
// Each poll cycle is one fixed-interval sleep followed by one status GET, so
// a poller contributes up to ceil(Timeout/Interval)+1 extra GETs per job to
// the load it measures.
type Poller struct {
	// Interval between status polls. Defaults to one second.
	Interval time.Duration
	// Timeout is the cumulative sleep ceiling. Defaults to 120 seconds.
	Timeout time.Duration
}

// Run POSTs payload to path, extracts the job id from the response, and
// polls /api/task/<id>?channel_id=<channelID> until SUCCESS, FAILED, or the
// ceiling. It returns the last observed status; when the ceiling is hit
// first, the status comes with ErrTaskTimeout so callers can tell a timed
// out job from a finished one. Request or parse failures propagate as-is.
func (p Poller) Run(ctx context.Context, s *Session, path, channelID string, payload interface{}) (string, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	resp, err := s.postJSON(ctx, path, payload)
	if err != nil {
		return "", fmt.Errorf("submit async task: %w", err)
	}
	taskID := gjson.GetBytes(resp.Body, "id")
	if !taskID.Exists() {
		return "", fmt.Errorf("submit async task: response missing id")
	}

	status := "QUEUED"
	var elapsed time.Duration
	for {
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(interval):
		}
		elapsed += interval

		status, err = p.pollOnce(ctx, s, taskID.String(), channelID)
		if err != nil {
			return "", err
		}
		if status == StatusSuccess || status == StatusFailed {
			return status, nil
		}
		if elapsed > timeout {
			return status, ErrTaskTimeout
		}
	}
}

// pollOnce issues a single status GET and extracts the status field.
func (p Poller) pollOnce(ctx context.Context, s *Session, taskID, channelID string) (string, error) {
	req := httpx.NewRequest("GET", "/api/task/"+taskID).
		WithQueryParam("channel_id", channelID)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("poll task %s: %w", taskID, err)
	}
	if resp.IsClientError() || resp.IsServerError() {
		return "", fmt.Errorf("poll task %s: %s", taskID, resp.Status)
	}

	status := gjson.GetBytes(resp.Body, "status")
	if !status.Exists() {
		return "", fmt.Errorf("poll task %s: response missing status", taskID)
	}
	return status.String(), nil
}
