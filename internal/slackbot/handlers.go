package slackbot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/p-blackswan/reacji-tweeter/internal/store"
	"github.com/p-blackswan/reacji-tweeter/internal/tracker"
)

// ReactionHandler receives normalized reaction events. The tracker handler
// implements this; it never returns errors to us.
type ReactionHandler interface {
	HandleReactionAdded(ctx context.Context, ev tracker.ReactionEvent)
	HandleReactionRemoved(ctx context.Context, ev tracker.ReactionEvent)
}

// Handler turns Socket Mode events into tracker.ReactionEvents. For each
// reaction event it performs the companion lookup (reactions.get for the
// current emoji count, conversation history for the message text) before
// calling the tracker.
type Handler struct {
	api     BotAPI
	socket  *socketmode.Client
	logger  zerolog.Logger
	tracker ReactionHandler
}

// NewHandler creates a new event handler.
func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{
		logger: logger.With().Str("component", "slack.handler").Logger(),
	}
}

// SetTracker sets the reaction handler events are delivered to. Must be
// called before the event loop starts.
func (h *Handler) SetTracker(tr ReactionHandler) {
	h.tracker = tr
}

// HandleEvent routes Socket Mode events.
func (h *Handler) HandleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		h.handleEventsAPI(ctx, evt)
	default:
		h.logger.Debug().Str("type", string(evt.Type)).Msg("unhandled event type")
	}
}

func (h *Handler) handleEventsAPI(ctx context.Context, evt socketmode.Event) {
	// Acknowledge first — Slack requires this within 3 seconds.
	if h.socket != nil && evt.Request != nil {
		h.socket.Ack(*evt.Request)
	}

	eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		h.logger.Warn().Str("type", string(evt.Type)).Msg("failed to cast events_api data")
		return
	}

	if eventsAPIEvent.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
	case *slackevents.ReactionAddedEvent:
		h.handleReaction(ctx, tracker.ReactionAdded, ev.Reaction, ev.Item)
	case *slackevents.ReactionRemovedEvent:
		h.handleReaction(ctx, tracker.ReactionRemoved, ev.Reaction, ev.Item)
	default:
		h.logger.Debug().
			Str("inner_type", eventsAPIEvent.InnerEvent.Type).
			Msg("unhandled callback event type")
	}
}

func (h *Handler) handleReaction(ctx context.Context, direction tracker.Direction, reaction string, item slackevents.Item) {
	if h.tracker == nil {
		return
	}
	ev, err := h.buildEvent(ctx, direction, reaction, item)
	if err != nil {
		h.logger.Error().Err(err).
			Str("channel", item.Channel).
			Str("ts", item.Timestamp).
			Msg("failed to look up reaction state, dropping event")
		return
	}

	switch direction {
	case tracker.ReactionAdded:
		h.tracker.HandleReactionAdded(ctx, ev)
	case tracker.ReactionRemoved:
		h.tracker.HandleReactionRemoved(ctx, ev)
	}
}

// buildEvent runs the companion lookup for a reaction event. The count is
// the current total of the event's own emoji on the message; the text is
// fetched only for the added path, where it becomes tweet content.
func (h *Handler) buildEvent(ctx context.Context, direction tracker.Direction, reaction string, item slackevents.Item) (tracker.ReactionEvent, error) {
	ev := tracker.ReactionEvent{
		Direction: direction,
		Emoji:     reaction,
		Kind:      store.ItemKind(item.Type),
		SlackID:   item.Timestamp,
		ChannelID: item.Channel,
	}

	ref := slack.NewRefToMessage(item.Channel, item.Timestamp)
	reactions, err := h.api.GetReactionsContext(ctx, ref, slack.GetReactionsParameters{Full: true})
	if err != nil {
		return ev, fmt.Errorf("getting reactions: %w", err)
	}
	for _, r := range reactions {
		if r.Name == reaction {
			ev.ReactionCount = r.Count
			break
		}
	}

	if direction == tracker.ReactionAdded {
		text, err := h.messageText(ctx, item.Channel, item.Timestamp)
		if err != nil {
			return ev, fmt.Errorf("getting message text: %w", err)
		}
		ev.MessageText = text
	}

	return ev, nil
}

func (h *Handler) messageText(ctx context.Context, channelID, ts string) (string, error) {
	resp, err := h.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return "", err
	}
	for _, msg := range resp.Messages {
		if msg.Timestamp == ts {
			return msg.Text, nil
		}
	}
	return "", fmt.Errorf("message %s not found in channel %s history", ts, channelID)
}
