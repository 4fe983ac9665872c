package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store/repository"
)

// MemoryStore keeps match documents in process. Dry-run replays score
// against it so nothing reaches the database.
type MemoryStore struct {
	mu      sync.Mutex
	matches map[string]*scoring.Match
}

// NewMemoryStore returns a store holding copies of ms.
func NewMemoryStore(ms ...*scoring.Match) *MemoryStore {
	s := &MemoryStore{matches: make(map[string]*scoring.Match, len(ms))}
	for _, m := range ms {
		s.matches[m.ID] = m.Clone()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, matchID string) (*scoring.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrMatchNotFound, matchID)
	}
	return m.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, m *scoring.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[m.ID] = m.Clone()
	return nil
}

// Patch merges the same way MatchRepository.Patch does.
func (s *MemoryStore) Patch(ctx context.Context, matchID string, patch map[string]interface{}) (*scoring.Match, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := repository.ApplyPatch(doc, patch); err != nil {
		return nil, err
	}
	if raw, err = json.Marshal(doc); err != nil {
		return nil, err
	}

	var next scoring.Match
	if err := json.Unmarshal(raw, &next); err != nil {
		return nil, fmt.Errorf("decoding patched match: %w", err)
	}
	next.ID = matchID
	return &next, s.Save(ctx, &next)
}

func (s *MemoryStore) ListByStatus(_ context.Context, statuses ...scoring.MatchStatus) ([]*scoring.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[scoring.MatchStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var out []*scoring.Match
	for _, m := range s.matches {
		if want[m.Status] {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
