package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store"
)

// ErrPlayerNotFound is returned for an unknown player id.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository handles player data access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetByID finds a player by ID
func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (*store.Player, error) {
	query := `
		SELECT player_id, name, role, team_id, created_at, updated_at
		FROM players
		WHERE player_id = $1
	`

	player := &store.Player{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&player.PlayerID, &player.Name, &player.Role, &player.TeamID,
		&player.CreatedAt, &player.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}

	return player, nil
}

// PlayersOfTeam returns the squad of a team in squad order.
func (r *PlayerRepository) PlayersOfTeam(ctx context.Context, teamID string) ([]scoring.Player, error) {
	query := `
		SELECT p.player_id, p.name, p.role
		FROM teams t
		JOIN players p ON p.player_id = ANY(t.player_ids)
		WHERE t.team_id = $1
		ORDER BY array_position(t.player_ids, p.player_id)
	`

	rows, err := r.db.DB().QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying squad: %w", err)
	}
	defer rows.Close()

	players := []scoring.Player{}
	for rows.Next() {
		var p scoring.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Role); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}
