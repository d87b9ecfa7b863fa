// Package tracker implements the reaction-to-tweet lifecycle: when enough
// people react to a Slack message with the trigger emoji it gets tweeted,
// and when the trigger reactions drop back to zero the tweet is deleted.
package tracker

import (
	"context"

	"github.com/p-blackswan/reacji-tweeter/internal/store"
)

// Direction says whether a reaction was added to or removed from a message.
type Direction string

const (
	ReactionAdded   Direction = "added"
	ReactionRemoved Direction = "removed"
)

// MaxPostLen is Twitter's tweet length ceiling. Messages longer than this are
// rejected before any gateway call; nothing is ever truncated.
const MaxPostLen = 280

// ReactionEvent is a normalized reaction event plus the companion lookup
// results: the message text and the current count of the trigger emoji on the
// message, both as of event processing time.
type ReactionEvent struct {
	Direction Direction
	Emoji     string
	Kind      store.ItemKind
	SlackID   string
	ChannelID string

	MessageText   string
	ReactionCount int
}

// Key returns the store lookup key for the event's target.
func (ev ReactionEvent) Key() store.ItemKey {
	return store.ItemKey{Kind: ev.Kind, SlackID: ev.SlackID}
}

// PostGateway creates and deletes posts on the external platform. Failures
// come back as errors; the handler never retries (retry policy belongs to the
// gateway implementation).
type PostGateway interface {
	CreatePost(ctx context.Context, content string) (string, error)
	DeletePost(ctx context.Context, id string) error
}

// ChannelResolver maps a channel ID to its human-readable name. The name is
// included in tweet content. Resolution may fail; the handler treats that as
// a hard stop for posting.
type ChannelResolver interface {
	ChannelName(ctx context.Context, channelID string) (string, error)
}
