package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/khelset/internal/store"
)

// ErrTeamNotFound is returned for an unknown team id.
var ErrTeamNotFound = errors.New("team not found")

// TeamRepository handles team data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetByID finds a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*store.Team, error) {
	query := `
		SELECT team_id, event_id, name, status, captain_id, player_ids, created_at, updated_at
		FROM teams
		WHERE team_id = $1
	`

	team := &store.Team{}
	err := r.db.DB().QueryRowContext(ctx, query, teamID).Scan(
		&team.TeamID, &team.EventID, &team.Name, &team.Status,
		&team.CaptainID, &team.PlayerIDs, &team.CreatedAt, &team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// Names maps team ids to display names. Unknown ids are left out.
func (r *TeamRepository) Names(ctx context.Context, teamIDs ...string) (map[string]string, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT team_id, name FROM teams WHERE team_id = ANY($1)`, pq.Array(teamIDs))
	if err != nil {
		return nil, fmt.Errorf("querying team names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(teamIDs))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
