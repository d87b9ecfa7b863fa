package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// ChannelResolver resolves channel IDs to names via conversations.list.
// It does not cache: names are looked up fresh for every event, so renames
// take effect immediately.
type ChannelResolver struct {
	api BotAPI
}

// NewChannelResolver creates a resolver over the given Slack client.
func NewChannelResolver(api BotAPI) *ChannelResolver {
	return &ChannelResolver{api: api}
}

// ChannelName returns the name for a channel ID, paging through the full
// channel listing. An ID missing from the listing (e.g. a private channel
// the bot cannot see) is an error.
func (r *ChannelResolver) ChannelName(ctx context.Context, channelID string) (string, error) {
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           200,
	}
	for {
		channels, cursor, err := r.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("listing channels: %w", err)
		}
		for _, ch := range channels {
			if ch.ID == channelID {
				return ch.Name, nil
			}
		}
		if cursor == "" {
			return "", fmt.Errorf("channel %s not recognized", channelID)
		}
		params.Cursor = cursor
	}
}
