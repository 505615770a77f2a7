package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_records (
	id         BIGSERIAL PRIMARY KEY,
	channel_id TEXT        NOT NULL,
	role       TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_records_channel_idx
	ON conversation_records (channel_id, id);
`

const (
	selectHistory = `
SELECT role, content FROM (
	SELECT id, role, content FROM conversation_records
	WHERE channel_id = $1
	ORDER BY id DESC
	LIMIT $2
) recent ORDER BY id ASC`

	insertRecord = `INSERT INTO conversation_records (channel_id, role, content) VALUES ($1, $2, $3)`

	trimRecords = `
DELETE FROM conversation_records
WHERE channel_id = $1 AND id NOT IN (
	SELECT id FROM conversation_records
	WHERE channel_id = $1
	ORDER BY id DESC
	LIMIT $2
)`

	deleteChannel = `DELETE FROM conversation_records WHERE channel_id = $1`
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore persists histories in PostgreSQL.
type PostgresStore struct {
	db    DB
	limit int
}

// NewPostgresStore creates a store over db capped at limit records per channel.
func NewPostgresStore(db DB, limit int) *PostgresStore {
	return &PostgresStore{db: db, limit: limit}
}

// Migrate creates the records table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("unable to create conversation schema: %w", err)
	}
	return nil
}

// History returns the channel's most recent records, oldest first.
func (s *PostgresStore) History(ctx context.Context, channelID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, selectHistory, channelID, s.queryLimit())
	if err != nil {
		return nil, fmt.Errorf("unable to query history: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("unable to scan record: %w", err)
		}
		r, err := ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("record in %s: %w", channelID, err)
		}
		records = append(records, Record{Role: r, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read history: %w", err)
	}

	return records, nil
}

// Append inserts rec and deletes everything older than the newest limit rows.
func (s *PostgresStore) Append(ctx context.Context, channelID string, rec Record) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if _, err = tx.Exec(ctx, insertRecord, channelID, string(rec.Role), rec.Content); err != nil {
		return fmt.Errorf("unable to insert record: %w", err)
	}

	if s.limit > 0 {
		if _, err = tx.Exec(ctx, trimRecords, channelID, s.limit); err != nil {
			return fmt.Errorf("unable to trim history: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("unable to commit record: %w", err)
	}
	return nil
}

// Clear deletes every record of the channel.
func (s *PostgresStore) Clear(ctx context.Context, channelID string) error {
	if _, err := s.db.Exec(ctx, deleteChannel, channelID); err != nil {
		return fmt.Errorf("unable to clear history: %w", err)
	}
	return nil
}

// queryLimit maps a non-positive limit to NULL, which PostgreSQL reads as LIMIT ALL.
func (s *PostgresStore) queryLimit() any {
	if s.limit <= 0 {
		return nil
	}
	return s.limit
}
