package undo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fortuna/khelset/internal/scoring"
)

// ErrNothingToUndo is returned when no snapshot is held for the match.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrSnapshotNotFound is what a Store returns for a missing key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store keeps one serialized snapshot per match.
type Store interface {
	Save(ctx context.Context, matchID string, data []byte) error
	Load(ctx context.Context, matchID string) ([]byte, error)
	Delete(ctx context.Context, matchID string) error
}

// Controller holds a single-level pre-image of each match so the last
// delivery or dismissal can be rolled back.
type Controller struct {
	store Store
}

// NewController creates a controller backed by store.
func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// Snapshot replaces the held snapshot for the match with a copy of m.
func (c *Controller) Snapshot(ctx context.Context, m *scoring.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.store.Save(ctx, m.ID, data); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Undo returns the held snapshot for the match and discards it.
func (c *Controller) Undo(ctx context.Context, matchID string) (*scoring.Match, error) {
	data, err := c.store.Load(ctx, matchID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, ErrNothingToUndo
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var m scoring.Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	m.ID = matchID

	if err := c.store.Delete(ctx, matchID); err != nil {
		return nil, fmt.Errorf("discarding snapshot: %w", err)
	}
	return &m, nil
}

// CanUndo reports whether a snapshot is held for the match.
func (c *Controller) CanUndo(ctx context.Context, matchID string) bool {
	_, err := c.store.Load(ctx, matchID)
	return err == nil
}

// Discard drops any held snapshot, e.g. once the match is completed.
func (c *Controller) Discard(ctx context.Context, matchID string) error {
	return c.store.Delete(ctx, matchID)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, matchID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[matchID] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, matchID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[matchID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, matchID)
	return nil
}
