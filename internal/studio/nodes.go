package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/contentworkshop/studioload/internal/httpx"
)

const topicKind = "topic"

// TopicID returns the id of a top-level topic of the channel's main tree:
// the first child, or a random one when random is set. Returns "" when the
// tree has no children.
func (s *Session) TopicID(ctx context.Context, channelID string, random bool) (string, error) {
	resp, err := s.get(ctx, "/api/channel/"+channelID)
	if err != nil {
		return "", err
	}

	children := gjson.GetBytes(resp.Body, "main_tree.children")
	if !children.Exists() {
		return "", fmt.Errorf("channel %s: response missing main_tree.children", channelID)
	}
	ids := children.Array()
	if len(ids) == 0 {
		return "", nil
	}
	if random {
		return ids[s.choice(len(ids))].String(), nil
	}
	return ids[0].String(), nil
}

// ResourceID descends from a topic to a leaf resource: while the first
// fetched node is itself a topic, it follows that topic's children. Returns
// the first (or a random) leaf node id, or "" when the subtree is empty.
func (s *Session) ResourceID(ctx context.Context, topicID string, random bool) (string, error) {
	nodes, err := s.nodesByIDs(ctx, []string{topicID})
	if err != nil {
		return "", err
	}

	for len(nodes) > 0 && nodes[0].Get("kind").String() == topicKind {
		children := nodes[0].Get("children").Array()
		if len(children) == 0 {
			return "", nil
		}
		ids := make([]string, len(children))
		for i, child := range children {
			ids[i] = child.String()
		}
		nodes, err = s.nodesByIDs(ctx, ids)
		if err != nil {
			return "", err
		}
	}

	if len(nodes) == 0 {
		return "", nil
	}
	if random {
		return nodes[s.choice(len(nodes))].Get("id").String(), nil
	}
	return nodes[0].Get("id").String(), nil
}

// nodesByIDs fetches node summaries for a set of node ids.
func (s *Session) nodesByIDs(ctx context.Context, ids []string) ([]gjson.Result, error) {
	path := "/api/get_nodes_by_ids/" + strings.Join(ids, ",")
	resp, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("GET %s: invalid JSON body", path)
	}
	return gjson.ParseBytes(resp.Body).Array(), nil
}

// FileURLs returns the storage URLs of every file attached to a content
// node. Nodes without files yield an empty slice.
func (s *Session) FileURLs(ctx context.Context, nodeID string) ([]string, error) {
	resp, err := s.get(ctx, "/api/get_nodes_by_ids_complete/"+nodeID)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("node %s: invalid JSON body", nodeID)
	}

	var urls []string
	for _, file := range gjson.GetBytes(resp.Body, "0.files").Array() {
		if u := file.Get("storage_url").String(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// FetchFile downloads one storage URL and discards the body, simulating a
// browser preview. The URL may be absolute (object storage on another host)
// or relative to the session's base URL.
func (s *Session) FetchFile(ctx context.Context, storageURL string) error {
	resp, err := s.client.Do(ctx, httpx.NewRequest("GET", storageURL))
	if err != nil {
		return err
	}
	if resp.IsClientError() || resp.IsServerError() {
		return fmt.Errorf("GET %s: %s", storageURL, resp.Status)
	}
	return nil
}
