package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/contentworkshop/studioload/internal/studio"
)

// DefaultChannelNamePrefix names channels created by the edit scenario.
// Leftovers from killed runs are found by this prefix; see the cleanup
// command.
const DefaultChannelNamePrefix = "Locust Test Channel"

// DefaultContentRootID is the node duplicated into freshly created
// channels, a large public content tree on the reference deployment.
const DefaultContentRootID = "76d5fd8636004b459a09aecbb2f8294e"

// Options configure the default task set.
type Options struct {
	// Poller drives async job status polling for the channel edit task.
	Poller studio.Poller
	// ChannelNamePrefix names test-created channels.
	// Defaults to DefaultChannelNamePrefix.
	ChannelNamePrefix string
	// ContentRootID is the source node for the duplicate-nodes job.
	// Defaults to DefaultContentRootID.
	ContentRootID string
	// Weights overrides the default per-task weights by task name. A zero
	// weight removes the task from selection.
	Weights map[string]int
}

// Default per-task weights. The login page dominates real traffic, and the
// accessible-channels and subtopic views are the slowest frequently hit
// endpoints, so they carry extra weight.
var defaultWeights = map[string]int{
	TaskLoginPage:              10,
	TaskChannelList:            1,
	TaskOpenChannel:            1,
	TaskOpenAccessibleChannels: 3,
	TaskOpenSubtopic:           3,
	TaskPreviewContentItem:     1,
	TaskChannelEdit:            6,
}

// Task names, as they appear in metrics and weight overrides.
const (
	TaskLoginPage              = "login_page"
	TaskChannelList            = "channel_list"
	TaskOpenChannel            = "open_channel"
	TaskOpenAccessibleChannels = "open_accessible_channels"
	TaskOpenSubtopic           = "open_subtopic"
	TaskPreviewContentItem     = "preview_content_item"
	TaskChannelEdit            = "channel_edit"
)

// DefaultSet builds the standard browser-user task mix.
func DefaultSet(opts Options) *Set {
	weight := func(name string) int {
		if w, ok := opts.Weights[name]; ok {
			return w
		}
		return defaultWeights[name]
	}

	return NewSet(
		Task{Name: TaskLoginPage, Weight: weight(TaskLoginPage), Run: loginPage},
		Task{Name: TaskChannelList, Weight: weight(TaskChannelList), Run: channelList},
		Task{Name: TaskOpenChannel, Weight: weight(TaskOpenChannel), Run: openChannel},
		Task{Name: TaskOpenAccessibleChannels, Weight: weight(TaskOpenAccessibleChannels), Run: openAccessibleChannels},
		Task{Name: TaskOpenSubtopic, Weight: weight(TaskOpenSubtopic), Run: openSubtopic},
		Task{Name: TaskPreviewContentItem, Weight: weight(TaskPreviewContentItem), Run: previewContentItem},
		Task{Name: TaskChannelEdit, Weight: weight(TaskChannelEdit), Run: opts.channelEdit},
	)
}

// loginPage visits the login page without logging in, by far the most hit
// endpoint.
func loginPage(ctx context.Context, s *studio.Session) error {
	return s.OpenLoginPage(ctx)
}

// channelList loads the channel page and the list endpoints it fans out to.
func channelList(ctx context.Context, s *studio.Session) error {
	if err := s.OpenChannelsPage(ctx); err != nil {
		return err
	}
	return s.BrowseChannelLists(ctx)
}

// openChannel opens the first public channel's edit page. No public
// channels means nothing to do.
func openChannel(ctx context.Context, s *studio.Session) error {
	channelID, err := s.FirstPublicChannelID(ctx)
	if err != nil || channelID == "" {
		return err
	}
	return s.OpenChannelPage(ctx, channelID)
}

// openAccessibleChannels loads the accessible-channels view for the first
// editable channel.
func openAccessibleChannels(ctx context.Context, s *studio.Session) error {
	channelID, err := s.FirstEditChannelID(ctx)
	if err != nil || channelID == "" {
		return err
	}
	return s.OpenAccessibleChannels(ctx, channelID)
}

// openSubtopic descends from the first public channel's first topic to a
// leaf resource.
func openSubtopic(ctx context.Context, s *studio.Session) error {
	channelID, err := s.FirstPublicChannelID(ctx)
	if err != nil || channelID == "" {
		return err
	}
	topicID, err := s.TopicID(ctx, channelID, false)
	if err != nil || topicID == "" {
		return err
	}
	_, err = s.ResourceID(ctx, topicID, false)
	return err
}

// previewContentItem picks a random resource and fetches every file behind
// it, the way the preview pane does.
func previewContentItem(ctx context.Context, s *studio.Session) error {
	channelID, err := s.FirstPublicChannelID(ctx)
	if err != nil || channelID == "" {
		return err
	}
	topicID, err := s.TopicID(ctx, channelID, true)
	if err != nil || topicID == "" {
		return err
	}
	contentID, err := s.ResourceID(ctx, topicID, true)
	if err != nil || contentID == "" {
		return err
	}
	urls, err := s.FileURLs(ctx, contentID)
	if err != nil {
		return err
	}
	for _, url := range urls {
		if err := s.FetchFile(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

// channelEdit runs the full create, duplicate, delete lifecycle. Deletion
// is deferred so the test channel is removed on every path, including a
// failed or timed out copy job.
func (o Options) channelEdit(ctx context.Context, s *studio.Session) (err error) {
	prefix := o.ChannelNamePrefix
	if prefix == "" {
		prefix = DefaultChannelNamePrefix
	}
	rootID := o.ContentRootID
	if rootID == "" {
		rootID = DefaultContentRootID
	}

	name := fmt.Sprintf("%s %s", prefix, uuid.NewString()[:8])
	channel, err := s.CreateChannel(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if derr := s.DeleteChannel(context.WithoutCancel(ctx), channel.ID); derr != nil && err == nil {
			err = fmt.Errorf("delete test channel %s: %w", channel.ID, derr)
		}
	}()

	payload := studio.DuplicateNodesRequest{
		NodeIDs:      []string{rootID},
		SortOrder:    1,
		TargetParent: channel.RootID,
		ChannelID:    channel.ID,
	}

	status, err := o.Poller.Run(ctx, s, "/api/duplicate_nodes/", channel.ID, payload)
	if err != nil {
		if errors.Is(err, studio.ErrTaskTimeout) {
			return fmt.Errorf("duplicate nodes job still %s: %w", status, err)
		}
		return err
	}
	if status == studio.StatusFailed {
		return fmt.Errorf("duplicate nodes job failed")
	}
	return nil
}
