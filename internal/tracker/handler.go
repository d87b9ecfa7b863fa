package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/reacji-tweeter/internal/metrics"
	"github.com/p-blackswan/reacji-tweeter/internal/store"
)

// Handler drives the posting/retraction decision for incoming reaction
// events. Every failure is converted into a log entry here; nothing
// propagates back to the Slack transport, so one bad event can never take
// down the event loop.
type Handler struct {
	store        store.Store
	gateway      PostGateway
	resolver     ChannelResolver
	triggerEmoji string
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewHandler creates a reaction handler. triggerEmoji is the single reaction
// name that activates posting and retraction; all other reactions are
// ignored. metrics may be nil.
func NewHandler(s store.Store, gateway PostGateway, resolver ChannelResolver, triggerEmoji string, logger zerolog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:        s,
		gateway:      gateway,
		resolver:     resolver,
		triggerEmoji: triggerEmoji,
		logger:       logger.With().Str("component", "tracker").Logger(),
		metrics:      m,
	}
}

// HandleReactionAdded runs the "added" path: at most one tweet and at most
// one store write per event.
func (h *Handler) HandleReactionAdded(ctx context.Context, ev ReactionEvent) {
	if ev.Emoji != h.triggerEmoji {
		return
	}

	logger := h.logger.With().
		Str("slack_id", ev.SlackID).
		Str("channel", ev.ChannelID).
		Logger()

	if ev.Kind != store.KindMessage {
		logger.Error().Str("kind", string(ev.Kind)).Msg("unknown item type, cannot tweet it")
		h.record("added", "unsupported_kind")
		return
	}

	channelName, err := h.resolver.ChannelName(ctx, ev.ChannelID)
	if err != nil {
		logger.Error().Err(err).Msg("cannot resolve channel name, not tweeting")
		h.record("added", "channel_unresolved")
		return
	}

	item, err := h.store.Load(ctx, ev.Key())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error().Err(err).Msg("failed to load tracked item")
		h.record("added", "store_failed")
		return
	}
	if item != nil {
		if item.Forbidden {
			logger.Warn().Msg("item is forbidden, not tweeting")
			h.record("added", "forbidden")
			return
		}
		if item.TweetID != "" {
			logger.Warn().Str("tweet_id", item.TweetID).Msg("message already has a tweet")
			h.record("added", "already")
			return
		}
	}

	if len([]rune(ev.MessageText)) > MaxPostLen {
		logger.Error().Int("len", len([]rune(ev.MessageText))).Msg("message is too long to tweet")
		h.record("added", "too_long")
		return
	}

	tweetID, err := h.gateway.CreatePost(ctx, composeContent(ev.MessageText, channelName))
	if err != nil {
		logger.Error().Err(err).Msg("failed to post tweet")
		h.record("added", "post_failed")
		return
	}
	h.metrics.RecordTweetPosted()

	err = h.store.Save(ctx, store.ItemPatch{
		Kind:      ev.Kind,
		SlackID:   ev.SlackID,
		ChannelID: store.StringPtr(ev.ChannelID),
		TweetID:   store.StringPtr(tweetID),
	})
	if err != nil {
		// The tweet exists but is untracked now. There is no automatic
		// reconciliation; an operator has to clean it up.
		logger.Error().Err(err).Str("tweet_id", tweetID).Msg("tweet posted but reference not saved")
		h.record("added", "store_failed")
		return
	}

	logger.Info().Str("tweet_id", tweetID).Msg("tweeted message")
	h.record("added", "posted")
}

// HandleReactionRemoved runs the "removed" path: once the trigger reaction
// count hits zero, delete the tweet and clear the stored id. Safe to call
// repeatedly for the same item.
func (h *Handler) HandleReactionRemoved(ctx context.Context, ev ReactionEvent) {
	if ev.Emoji != h.triggerEmoji {
		return
	}

	logger := h.logger.With().
		Str("slack_id", ev.SlackID).
		Str("channel", ev.ChannelID).
		Logger()

	if ev.ReactionCount > 0 {
		logger.Info().Int("count", ev.ReactionCount).Msg("message still has trigger reacts left, keeping tweet")
		h.record("removed", "reacts_left")
		return
	}

	item, err := h.store.Load(ctx, ev.Key())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error().Err(err).Msg("failed to load tracked item")
		h.record("removed", "store_failed")
		return
	}
	if item == nil || item.TweetID == "" {
		logger.Warn().Msg("item does not have a tweet, nothing to delete")
		h.record("removed", "not_tracked")
		return
	}

	if err := h.gateway.DeletePost(ctx, item.TweetID); err != nil {
		// Keep the stored id so a later remove event can retry the delete.
		logger.Error().Err(err).Str("tweet_id", item.TweetID).Msg("failed to delete tweet")
		h.record("removed", "delete_failed")
		return
	}
	h.metrics.RecordTweetDeleted()

	err = h.store.Save(ctx, store.ItemPatch{
		Kind:    ev.Kind,
		SlackID: ev.SlackID,
		TweetID: store.StringPtr(""),
	})
	if err != nil {
		logger.Error().Err(err).Msg("tweet deleted but reference not cleared")
		h.record("removed", "store_failed")
		return
	}

	logger.Info().Str("tweet_id", item.TweetID).Msg("deleted tweet")
	h.record("removed", "deleted")
}

func (h *Handler) record(direction, outcome string) {
	h.metrics.RecordReactionEvent(direction, outcome)
	switch outcome {
	case "unsupported_kind", "channel_unresolved", "too_long", "post_failed", "store_failed", "delete_failed":
		h.metrics.RecordError("tracker", outcome)
	}
}

func composeContent(text, channelName string) string {
	return fmt.Sprintf("%s (#%s)", text, channelName)
}
