// Package session owns the signed-in identity: one Manager per process,
// backed by an injectable Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/memoriesapp/memories/client/internal/storage/sqlite"
	"github.com/memoriesapp/memories/client/internal/types"
)

// Key is the fixed storage key of the persisted session.
const Key = "profile"

// Store persists the session under Key. Load returns (nil, nil) when no
// session has been saved.
type Store interface {
	Load(ctx context.Context) (*types.Session, error)
	Save(ctx context.Context, s types.Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the serialized session in memory.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func (m *MemoryStore) Load(context.Context) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return nil, nil
	}
	return decode(m.raw)
}

func (m *MemoryStore) Save(_ context.Context, s types.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = nil
	return nil
}

// SQLiteStore persists the session in the local state database.
type SQLiteStore struct {
	kv *sqlite.KV
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	kv, err := sqlite.NewKV(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session schema: %w", err)
	}
	return &SQLiteStore{kv: kv}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*types.Session, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *SQLiteStore) Save(ctx context.Context, sess types.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, Key, raw)
}

func (s *SQLiteStore) Clear(ctx context.Context) error { return s.kv.Delete(ctx, Key) }

// Close releases the database.
func (s *SQLiteStore) Close() error { return s.kv.Close() }

func decode(raw []byte) (*types.Session, error) {
	var s types.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
