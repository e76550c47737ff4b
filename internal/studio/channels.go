package studio

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Channel list endpoints, each returning a JSON array of channel summaries.
const (
	PendingChannelsPath    = "/get_user_pending_channels/"
	EditChannelsPath       = "/get_user_edit_channels/"
	BookmarkedChannelsPath = "/get_user_bookmarked_channels/"
	PublicChannelsPath     = "/get_user_public_channels/"
	ViewChannelsPath       = "/get_user_view_channels/"
)

// ChannelListPaths are the endpoints the channel list page fans out to.
var ChannelListPaths = []string{
	PendingChannelsPath,
	EditChannelsPath,
	BookmarkedChannelsPath,
	PublicChannelsPath,
	ViewChannelsPath,
}

// Channel is a content container created for test purposes.
type Channel struct {
	// ID identifies the channel.
	ID string
	// RootID is the id of the channel's main tree root, the target parent
	// for copy operations.
	RootID string
}

// ChannelSummary is one entry of a channel list endpoint.
type ChannelSummary struct {
	ID   string
	Name string
}

// NewChannelRequest is the payload for creating a channel.
type NewChannelRequest struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	ThumbnailURL    string                 `json:"thumbnail_url"`
	Count           int                    `json:"count"`
	Size            int                    `json:"size"`
	Published       bool                   `json:"published"`
	ViewOnly        bool                   `json:"view_only"`
	Viewers         []string               `json:"viewers"`
	ContentDefaults map[string]interface{} `json:"content_defaults"`
	PendingEditors  []string               `json:"pending_editors"`
}

// OpenChannelsPage loads the channels overview page.
func (s *Session) OpenChannelsPage(ctx context.Context) error {
	_, err := s.get(ctx, "/channels/")
	return err
}

// OpenChannelPage loads a single channel's edit page.
func (s *Session) OpenChannelPage(ctx context.Context, channelID string) error {
	_, err := s.get(ctx, "/channels/"+channelID)
	return err
}

// OpenAccessibleChannels loads the accessible-channels view for a channel.
func (s *Session) OpenAccessibleChannels(ctx context.Context, channelID string) error {
	_, err := s.get(ctx, "/accessible_channels/"+channelID)
	return err
}

// BrowseChannelLists hits every channel list endpoint, the way the channel
// page does on load.
func (s *Session) BrowseChannelLists(ctx context.Context) error {
	for _, path := range ChannelListPaths {
		if _, err := s.get(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// FirstPublicChannelID returns the id of the first public channel, or ""
// when the account sees no public channels.
func (s *Session) FirstPublicChannelID(ctx context.Context) (string, error) {
	return s.firstChannelID(ctx, PublicChannelsPath)
}

// FirstEditChannelID returns the id of the first editable channel, or ""
// when the account has none.
func (s *Session) FirstEditChannelID(ctx context.Context) (string, error) {
	return s.firstChannelID(ctx, EditChannelsPath)
}

// firstChannelID reads a channel list endpoint and returns the first entry's
// id. An empty list is not an error; the empty id lets callers no-op.
func (s *Session) firstChannelID(ctx context.Context, path string) (string, error) {
	resp, err := s.get(ctx, path)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(resp.Body) {
		return "", fmt.Errorf("GET %s: invalid JSON body", path)
	}
	return gjson.GetBytes(resp.Body, "0.id").String(), nil
}

// ListEditChannels returns the id and name of every channel the account can
// edit. Used by cleanup to find leftover test channels.
func (s *Session) ListEditChannels(ctx context.Context) ([]ChannelSummary, error) {
	resp, err := s.get(ctx, EditChannelsPath)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("GET %s: invalid JSON body", EditChannelsPath)
	}
	var channels []ChannelSummary
	for _, entry := range gjson.ParseBytes(resp.Body).Array() {
		channels = append(channels, ChannelSummary{
			ID:   entry.Get("id").String(),
			Name: entry.Get("name").String(),
		})
	}
	return channels, nil
}

// CreateChannel creates a channel with the given name and returns its id
// and main tree root id.
func (s *Session) CreateChannel(ctx context.Context, name string) (Channel, error) {
	payload := NewChannelRequest{
		Name:            name,
		Description:     "Synthetic channel created by studioload",
		ThumbnailURL:    "/static/img/kolibri_placeholder.png",
		Viewers:         []string{},
		ContentDefaults: map[string]interface{}{},
		PendingEditors:  []string{},
	}

	resp, err := s.postJSON(ctx, "/api/channel", payload)
	if err != nil {
		return Channel{}, err
	}

	id := gjson.GetBytes(resp.Body, "id")
	rootID := gjson.GetBytes(resp.Body, "main_tree.id")
	if !id.Exists() || !rootID.Exists() {
		return Channel{}, fmt.Errorf("create channel: response missing id or main_tree.id")
	}
	return Channel{ID: id.String(), RootID: rootID.String()}, nil
}

// DeleteChannel deletes a channel by id.
func (s *Session) DeleteChannel(ctx context.Context, channelID string) error {
	return s.delete(ctx, "/api/channel/"+channelID+"/")
}
