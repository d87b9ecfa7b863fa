package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/reacji-tweeter/internal/store"
)

const testEmoji = "test-emoji"

type mockGateway struct {
	created   []string
	deleted   []string
	nextID    string
	createErr error
	deleteErr error
}

func (g *mockGateway) CreatePost(_ context.Context, content string) (string, error) {
	if g.createErr != nil {
		return "", g.createErr
	}
	g.created = append(g.created, content)
	return g.nextID, nil
}

func (g *mockGateway) DeletePost(_ context.Context, id string) error {
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, id)
	return nil
}

type mockResolver struct {
	names map[string]string
	err   error
}

func (r *mockResolver) ChannelName(_ context.Context, channelID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	name, ok := r.names[channelID]
	if !ok {
		return "", fmt.Errorf("channel %s not recognized", channelID)
	}
	return name, nil
}

// countingStore wraps a real store to observe calls and inject save failures.
type countingStore struct {
	store.Store
	loads   int
	saves   int
	saveErr error
}

func (c *countingStore) Load(ctx context.Context, key store.ItemKey) (*store.TrackedItem, error) {
	c.loads++
	return c.Store.Load(ctx, key)
}

func (c *countingStore) Save(ctx context.Context, patch store.ItemPatch) error {
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.Store.Save(ctx, patch)
}

type fixture struct {
	handler  *Handler
	store    *countingStore
	gateway  *mockGateway
	resolver *mockResolver
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var buf bytes.Buffer
	cs := &countingStore{Store: store.NewMemory()}
	gw := &mockGateway{nextID: "123tweeet"}
	res := &mockResolver{names: map[string]string{"channel1": "test-channel"}}
	h := NewHandler(cs, gw, res, testEmoji, zerolog.New(&buf), nil)
	return &fixture{handler: h, store: cs, gateway: gw, resolver: res, logs: &buf}
}

func addedEvent(text string) ReactionEvent {
	return ReactionEvent{
		Direction:     ReactionAdded,
		Emoji:         testEmoji,
		Kind:          store.KindMessage,
		SlackID:       "123456",
		ChannelID:     "channel1",
		MessageText:   text,
		ReactionCount: 1,
	}
}

func removedEvent(count int) ReactionEvent {
	return ReactionEvent{
		Direction:     ReactionRemoved,
		Emoji:         testEmoji,
		Kind:          store.KindMessage,
		SlackID:       "123456",
		ChannelID:     "channel1",
		ReactionCount: count,
	}
}

func TestAdded_IgnoresOtherEmoji(t *testing.T) {
	f := newFixture(t)
	ev := addedEvent("hello")
	ev.Emoji = "eggplant"

	f.handler.HandleReactionAdded(context.Background(), ev)

	assert.Empty(t, f.gateway.created)
	assert.Zero(t, f.store.loads)
	assert.Zero(t, f.store.saves)
	assert.Empty(t, f.logs.String(), "non-trigger reactions must leave no trace")
}

func TestAdded_RejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	ev := addedEvent("hello")
	ev.Kind = "wat"

	f.handler.HandleReactionAdded(context.Background(), ev)

	assert.Contains(t, f.logs.String(), "unknown")
	assert.Empty(t, f.gateway.created)
}

func TestAdded_UnrecognizedChannel(t *testing.T) {
	f := newFixture(t)
	ev := addedEvent("oh boy this is private")
	ev.ChannelID = "private-message"

	f.handler.HandleReactionAdded(context.Background(), ev)

	assert.Contains(t, f.logs.String(), "channel")
	assert.Empty(t, f.gateway.created)
	assert.Zero(t, f.store.saves)
}

func TestAdded_ResolverFailure(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("wuh oh")

	f.handler.HandleReactionAdded(context.Background(), addedEvent("oh boy this is private"))

	assert.Contains(t, f.logs.String(), "wuh oh")
	assert.Empty(t, f.gateway.created)
}

func TestAdded_TweetsAndSavesReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.HandleReactionAdded(ctx, addedEvent("howdly doodly"))

	require.Len(t, f.gateway.created, 1)
	assert.Contains(t, f.gateway.created[0], "howdly doodly")
	assert.Contains(t, f.gateway.created[0], "test-channel")

	item, err := f.store.Load(ctx, store.ItemKey{Kind: store.KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "123tweeet", item.TweetID)
	assert.Equal(t, "channel1", item.ChannelID)
}

func TestAdded_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, store.ItemPatch{
		Kind:    store.KindMessage,
		SlackID: "123456",
		TweetID: store.StringPtr("98765"),
	}))
	f.store.saves = 0

	f.handler.HandleReactionAdded(ctx, addedEvent("i have been tweted hence"))

	assert.Contains(t, f.logs.String(), "already")
	assert.Empty(t, f.gateway.created)
	assert.Zero(t, f.store.saves)
}

func TestAdded_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, store.ItemPatch{
		Kind:      store.KindMessage,
		SlackID:   "123456",
		Forbidden: store.BoolPtr(true),
	}))

	f.handler.HandleReactionAdded(ctx, addedEvent("i have been tweted hence"))

	assert.Contains(t, f.logs.String(), "forbidden")
	assert.Empty(t, f.gateway.created)
}

func TestAdded_LengthBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Exactly at the ceiling posts.
	f.handler.HandleReactionAdded(ctx, addedEvent(strings.Repeat("a", MaxPostLen)))
	assert.Len(t, f.gateway.created, 1)
	assert.NotContains(t, f.logs.String(), "too long")
}

func TestAdded_TooLong(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleReactionAdded(context.Background(), addedEvent(strings.Repeat("a", MaxPostLen+1)))

	assert.Contains(t, f.logs.String(), "too long")
	assert.Empty(t, f.gateway.created)
	assert.Zero(t, f.store.saves)
}

func TestAdded_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.createErr = errors.New("fail whale")
	ctx := context.Background()

	f.handler.HandleReactionAdded(ctx, addedEvent("woah"))

	assert.Contains(t, f.logs.String(), "fail whale")
	assert.Zero(t, f.store.saves, "no store write after gateway failure")
	_, err := f.store.Load(ctx, store.ItemKey{Kind: store.KindMessage, SlackID: "123456"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdded_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("no database")

	f.handler.HandleReactionAdded(context.Background(), addedEvent("woah"))

	assert.Contains(t, f.logs.String(), "no database")
	assert.Len(t, f.gateway.created, 1, "the tweet went out before the store failed")
}

func TestRemoved_IgnoresOtherEmoji(t *testing.T) {
	f := newFixture(t)
	ev := removedEvent(0)
	ev.Emoji = "eggplant"

	f.handler.HandleReactionRemoved(context.Background(), ev)

	assert.Empty(t, f.gateway.deleted)
	assert.Zero(t, f.store.loads)
	assert.Empty(t, f.logs.String())
}

func TestRemoved_ReactsLeft(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleReactionRemoved(context.Background(), removedEvent(4))

	assert.Contains(t, f.logs.String(), "reacts left")
	assert.Zero(t, f.store.loads, "store untouched while reacts remain")
	assert.Zero(t, f.store.saves)
	assert.Empty(t, f.gateway.deleted)
}

func TestRemoved_NotTracked(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleReactionRemoved(context.Background(), removedEvent(0))

	assert.Contains(t, f.logs.String(), "does not have a tweet")
	assert.Empty(t, f.gateway.deleted)
}

func TestRemoved_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.HandleReactionRemoved(ctx, removedEvent(0))
	f.handler.HandleReactionRemoved(ctx, removedEvent(0))

	assert.Equal(t, 2, strings.Count(f.logs.String(), "does not have a tweet"))
	assert.Empty(t, f.gateway.deleted)
}

func TestRemoved_DeletesTweet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, store.ItemPatch{
		Kind:      store.KindMessage,
		SlackID:   "123456",
		TweetID:   store.StringPtr("98765"),
		Forbidden: store.BoolPtr(true),
	}))

	f.handler.HandleReactionRemoved(ctx, removedEvent(0))

	require.Equal(t, []string{"98765"}, f.gateway.deleted)

	item, err := f.store.Load(ctx, store.ItemKey{Kind: store.KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Empty(t, item.TweetID)
	assert.True(t, item.Forbidden, "clearing the tweet id must not touch other fields")
}

func TestRemoved_DeleteFailureKeepsID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, store.ItemPatch{
		Kind:    store.KindMessage,
		SlackID: "123456",
		TweetID: store.StringPtr("98765"),
	}))
	f.gateway.deleteErr = errors.New("twitter is down")

	f.handler.HandleReactionRemoved(ctx, removedEvent(0))

	assert.Contains(t, f.logs.String(), "twitter is down")
	item, err := f.store.Load(ctx, store.ItemKey{Kind: store.KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "98765", item.TweetID, "id stays so a later event can retry the delete")

	// A later event retries and succeeds.
	f.gateway.deleteErr = nil
	f.handler.HandleReactionRemoved(ctx, removedEvent(0))
	assert.Equal(t, []string{"98765"}, f.gateway.deleted)
	item, err = f.store.Load(ctx, store.ItemKey{Kind: store.KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Empty(t, item.TweetID)
}

func TestComposeContent(t *testing.T) {
	content := composeContent("howdly doodly", "test-channel")
	assert.Contains(t, content, "howdly doodly")
	assert.Contains(t, content, "test-channel")
}
