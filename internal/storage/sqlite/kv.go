package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("sqlite: key not found")

// KV is a string-keyed blob store on the kv table.
type KV struct {
	db *sql.DB
}

// NewKV wraps db, creating the table when needed.
func NewKV(ctx context.Context, db *sql.DB) (*KV, error) {
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

// DB exposes the underlying connection.
func (s *KV) DB() *sql.DB { return s.db }

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *KV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Close closes the underlying connection.
func (s *KV) Close() error { return s.db.Close() }
