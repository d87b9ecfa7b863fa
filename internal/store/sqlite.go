package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is the durable connector, backed by a single-file database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs the schema
// migration.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "reacji-tweeter.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracked_items (
			kind       TEXT NOT NULL,
			slack_id   TEXT NOT NULL,
			channel_id TEXT NOT NULL DEFAULT '',
			tweet_id   TEXT NOT NULL DEFAULT '',
			forbidden  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (kind, slack_id)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, key ItemKey) (*TrackedItem, error) {
	return loadTx(ctx, s.db, key)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadTx(ctx context.Context, q querier, key ItemKey) (*TrackedItem, error) {
	row := q.QueryRowContext(ctx,
		`SELECT kind, slack_id, channel_id, tweet_id, forbidden
		 FROM tracked_items WHERE kind = ? AND slack_id = ?`,
		string(key.Kind), key.SlackID)

	var item TrackedItem
	var forbidden int
	err := row.Scan(&item.Kind, &item.SlackID, &item.ChannelID, &item.TweetID, &forbidden)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	item.Forbidden = forbidden != 0
	return &item, nil
}

// Save performs the upsert-merge inside a transaction: read the current row,
// apply the patch, write the merged record back.
func (s *SQLite) Save(ctx context.Context, patch ItemPatch) error {
	if err := patch.validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save tx: %w", err)
	}
	defer tx.Rollback()

	prev, err := loadTx(ctx, tx, patch.Key())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	item := patch.apply(prev)

	forbidden := 0
	if item.Forbidden {
		forbidden = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tracked_items (kind, slack_id, channel_id, tweet_id, forbidden)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, slack_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			tweet_id   = excluded.tweet_id,
			forbidden  = excluded.forbidden`,
		string(item.Kind), item.SlackID, item.ChannelID, item.TweetID, forbidden)
	if err != nil {
		return fmt.Errorf("saving %s: %w", patch.Key(), err)
	}

	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
