package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_LoadMissing(t *testing.T) {
	s := openTestDB(t)
	_, err := s.Load(context.Background(), ItemKey{Kind: KindMessage, SlackID: "123456"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)

	require.NoError(t, s.Save(ctx, ItemPatch{
		Kind:      KindMessage,
		SlackID:   "123456",
		ChannelID: StringPtr("C1"),
		TweetID:   StringPtr("98765"),
	}))

	item, err := s.Load(ctx, ItemKey{Kind: KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "98765", item.TweetID)
	assert.Equal(t, "C1", item.ChannelID)
	assert.False(t, item.Forbidden)
}

func TestSQLite_MergePreservesOmittedFields(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)

	require.NoError(t, s.Save(ctx, ItemPatch{
		Kind:      KindMessage,
		SlackID:   "123456",
		TweetID:   StringPtr("98765"),
		Forbidden: BoolPtr(true),
	}))
	require.NoError(t, s.Save(ctx, ItemPatch{
		Kind:    KindMessage,
		SlackID: "123456",
		TweetID: StringPtr(""),
	}))

	item, err := s.Load(ctx, ItemKey{Kind: KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Empty(t, item.TweetID)
	assert.True(t, item.Forbidden, "clearing the tweet id must not reset forbidden")
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, ItemPatch{
		Kind:    KindMessage,
		SlackID: "123456",
		TweetID: StringPtr("42"),
	}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	item, err := s.Load(ctx, ItemKey{Kind: KindMessage, SlackID: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "42", item.TweetID)
}

func TestSQLite_Ping(t *testing.T) {
	s := openTestDB(t)
	assert.NoError(t, s.Ping(context.Background()))
}
