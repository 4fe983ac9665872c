package service

import (
	"context"
	"fmt"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store"
	"github.com/fortuna/khelset/internal/store/repository"
)

// PlayerService answers roster lookups. It is also the Roster the scoring
// service selects players from.
type PlayerService struct {
	playerRepo *repository.PlayerRepository
	teamRepo   *repository.TeamRepository
}

// NewPlayerService creates a new player service
func NewPlayerService(db *store.Database) *PlayerService {
	return &PlayerService{
		playerRepo: repository.NewPlayerRepository(db),
		teamRepo:   repository.NewTeamRepository(db),
	}
}

// GetPlayer retrieves a player by ID with team details
func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (*PlayerProfile, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}

	var team *store.Team
	if player.TeamID.Valid {
		team, _ = s.teamRepo.GetByID(ctx, player.TeamID.String)
	}

	return &PlayerProfile{
		Player: player,
		Team:   team,
	}, nil
}

// GetTeam retrieves a team with its squad in batting-card order.
func (s *PlayerService) GetTeam(ctx context.Context, teamID string) (*TeamRoster, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}

	squad, err := s.playerRepo.PlayersOfTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("fetching team roster: %w", err)
	}

	return &TeamRoster{Team: team, Players: squad}, nil
}

// PlayersOfTeam returns a team's squad.
func (s *PlayerService) PlayersOfTeam(ctx context.Context, teamID string) ([]scoring.Player, error) {
	return s.playerRepo.PlayersOfTeam(ctx, teamID)
}

// Names maps team ids to display names.
func (s *PlayerService) Names(ctx context.Context, teamIDs ...string) (map[string]string, error) {
	return s.teamRepo.Names(ctx, teamIDs...)
}

// PlayerProfile contains player details with team information
type PlayerProfile struct {
	Player *store.Player `json:"player"`
	Team   *store.Team   `json:"team,omitempty"`
}

// TeamRoster is a team and its squad.
type TeamRoster struct {
	Team    *store.Team      `json:"team"`
	Players []scoring.Player `json:"players"`
}
