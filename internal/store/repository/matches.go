package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store"
)

// ErrMatchNotFound is returned when no document exists for a match id.
var ErrMatchNotFound = errors.New("match not found")

// MatchRepository stores match documents as JSONB.
type MatchRepository struct {
	db *store.Database
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *store.Database) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get loads a match document by id.
func (r *MatchRepository) Get(ctx context.Context, matchID string) (*scoring.Match, error) {
	query := `SELECT doc FROM matches WHERE match_id = $1`

	var doc []byte
	err := r.db.DB().QueryRowContext(ctx, query, matchID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying match: %w", err)
	}

	return decodeMatch(matchID, doc)
}

// Save writes the full document, creating the row if needed.
func (r *MatchRepository) Save(ctx context.Context, m *scoring.Match) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding match: %w", err)
	}

	query := `
		INSERT INTO matches (match_id, event_id, team_a_id, team_b_id, status, doc)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id) DO UPDATE SET
			status = EXCLUDED.status,
			doc = EXCLUDED.doc,
			version = matches.version + 1,
			updated_at = NOW()
	`

	_, err = r.db.DB().ExecContext(ctx, query, m.ID, m.EventID, m.TeamAID, m.TeamBID, string(m.Status), doc)
	if err != nil {
		return fmt.Errorf("saving match %s: %w", m.ID, err)
	}
	return nil
}

// Patch merges a partial update into the stored document inside a
// transaction. Keys may be dotted paths such as "rules.totalOvers".
func (r *MatchRepository) Patch(ctx context.Context, matchID string, patch map[string]interface{}) (*scoring.Match, error) {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning patch: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx, `SELECT doc FROM matches WHERE match_id = $1 FOR UPDATE`, matchID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("locking match: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding match %s: %w", matchID, err)
	}
	if err := ApplyPatch(doc, patch); err != nil {
		return nil, err
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding match: %w", err)
	}
	m, err := decodeMatch(matchID, merged)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE matches SET doc = $2, status = $3, version = version + 1, updated_at = NOW() WHERE match_id = $1`,
		matchID, merged, string(m.Status))
	if err != nil {
		return nil, fmt.Errorf("updating match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing patch: %w", err)
	}
	return m, nil
}

// ListByStatus returns every match currently in one of the given states.
func (r *MatchRepository) ListByStatus(ctx context.Context, statuses ...scoring.MatchStatus) ([]*scoring.Match, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `SELECT match_id, doc FROM matches WHERE status = ANY($1) ORDER BY updated_at DESC`

	rows, err := r.db.DB().QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []*scoring.Match
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m, err := decodeMatch(id, doc)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func decodeMatch(matchID string, doc []byte) (*scoring.Match, error) {
	var m scoring.Match
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decoding match %s: %w", matchID, err)
	}
	m.ID = matchID
	return &m, nil
}
