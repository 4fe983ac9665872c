package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Team is a side registered for an event. PlayerIDs is the squad in the order
// the organiser entered it.
type Team struct {
	TeamID    string         `json:"id" db:"team_id"`
	EventID   sql.NullString `json:"eventId,omitempty" db:"event_id"`
	Name      string         `json:"name" db:"name"`
	Status    string         `json:"status" db:"status"`
	CaptainID sql.NullString `json:"captainId,omitempty" db:"captain_id"`
	PlayerIDs pq.StringArray `json:"players" db:"player_ids"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Player is a roster entry.
type Player struct {
	PlayerID  string         `json:"id" db:"player_id"`
	Name      string         `json:"name" db:"name"`
	Role      string         `json:"role" db:"role"`
	TeamID    sql.NullString `json:"teamId,omitempty" db:"team_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
