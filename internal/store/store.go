// Package store persists the association between Slack messages and the
// tweets posted for them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load when no record exists for the key.
var ErrNotFound = errors.New("tracked item not found")

// ItemKind is the type of Slack item a reaction landed on. Only messages are
// supported; other kinds are rejected by the handler before reaching the store.
type ItemKind string

const KindMessage ItemKind = "message"

// ItemKey identifies a tracked item: the item kind plus the Slack message
// timestamp, which Slack treats as the message ID within a channel.
type ItemKey struct {
	Kind    ItemKind
	SlackID string
}

func (k ItemKey) String() string {
	return string(k.Kind) + "/" + k.SlackID
}

// TrackedItem is the persisted record for one Slack message. TweetID is empty
// when no tweet currently exists for the item (never posted, or retracted).
// Forbidden permanently suppresses posting regardless of reactions.
type TrackedItem struct {
	Kind      ItemKind `json:"kind"`
	SlackID   string   `json:"slack_id"`
	ChannelID string   `json:"channel_id,omitempty"`
	TweetID   string   `json:"tweet_id,omitempty"`
	Forbidden bool     `json:"forbidden,omitempty"`
}

func (t *TrackedItem) Key() ItemKey {
	return ItemKey{Kind: t.Kind, SlackID: t.SlackID}
}

// ItemPatch is the upsert-merge write shape. Kind and SlackID are the key and
// always required. For the remaining fields, nil means "leave unchanged" and
// a pointer to the zero value means "clear". Save never deletes records.
type ItemPatch struct {
	Kind      ItemKind
	SlackID   string
	ChannelID *string
	TweetID   *string
	Forbidden *bool
}

// Key returns the lookup key for the patch.
func (p ItemPatch) Key() ItemKey {
	return ItemKey{Kind: p.Kind, SlackID: p.SlackID}
}

func (p ItemPatch) validate() error {
	if p.Kind == "" || p.SlackID == "" {
		return fmt.Errorf("item patch missing key fields (kind=%q, slack_id=%q)", p.Kind, p.SlackID)
	}
	return nil
}

// apply merges the patch into prev and returns the resulting record. prev may
// be nil (insert).
func (p ItemPatch) apply(prev *TrackedItem) TrackedItem {
	item := TrackedItem{Kind: p.Kind, SlackID: p.SlackID}
	if prev != nil {
		item = *prev
	}
	if p.ChannelID != nil {
		item.ChannelID = *p.ChannelID
	}
	if p.TweetID != nil {
		item.TweetID = *p.TweetID
	}
	if p.Forbidden != nil {
		item.Forbidden = *p.Forbidden
	}
	return item
}

// StringPtr returns a pointer to s, for building patches inline.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b, for building patches inline.
func BoolPtr(b bool) *bool { return &b }

// Store is the persistent mapping between Slack messages and tweets.
// Save is an upsert-merge: fields omitted from the patch keep their prior
// values, per ItemPatch.
type Store interface {
	Load(ctx context.Context, key ItemKey) (*TrackedItem, error)
	Save(ctx context.Context, patch ItemPatch) error
	Close() error
}

// Pinger is implemented by connectors that can verify their backend is
// reachable, for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries connector construction options. Fields are connector
// specific; unused fields are ignored.
type Config struct {
	// Path is the database file path for file-backed connectors.
	Path string
}

// Constructor builds a Store from a Config.
type Constructor func(cfg Config) (Store, error)

var connectors = map[string]Constructor{
	"inmemory": func(Config) (Store, error) { return NewMemory(), nil },
	"sqlite":   func(cfg Config) (Store, error) { return OpenSQLite(cfg.Path) },
}

// Open resolves a connector type tag and constructs the store. An empty or
// unrecognized tag is a configuration error meant to abort startup.
func Open(connectorType string, cfg Config) (Store, error) {
	if connectorType == "" {
		return nil, errors.New("DB_CONNECTOR_TYPE is not set")
	}
	ctor, ok := connectors[connectorType]
	if !ok {
		return nil, fmt.Errorf("no store connector implementation for type %q (have: %s)",
			connectorType, strings.Join(connectorTags(), ", "))
	}
	return ctor(cfg)
}

func connectorTags() []string {
	tags := make([]string, 0, len(connectors))
	for tag := range connectors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
