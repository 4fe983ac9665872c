package replay

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/service"
)

// ErrInvalidScript is returned for a script that cannot be run.
var ErrInvalidScript = errors.New("invalid replay script")

// Op names one scorer action.
type Op string

const (
	OpToss        Op = "toss"
	OpOpeners     Op = "openers"
	OpDelivery    Op = "delivery"
	OpDismissal   Op = "dismissal"
	OpNextBatsman Op = "next_batsman"
	OpNextBowler  Op = "next_bowler"
	OpUndo        Op = "undo"
)

// Action is one step of a scoresheet. Only the fields its Op needs are read.
type Action struct {
	Op Op `json:"op"`

	WinningTeamID string               `json:"winningTeamId,omitempty"`
	Decision      scoring.TossDecision `json:"decision,omitempty"`

	OnStrikeBatsmanID  string `json:"onStrikeBatsmanId,omitempty"`
	NonStrikeBatsmanID string `json:"nonStrikeBatsmanId,omitempty"`
	BowlerID           string `json:"bowlerId,omitempty"`

	PlayerID string `json:"playerId,omitempty"`

	Delivery  *scoring.DeliveryParams  `json:"delivery,omitempty"`
	Dismissal *service.DismissalParams `json:"dismissal,omitempty"`
}

// Script replays a paper scoresheet against one match.
type Script struct {
	MatchID string   `json:"matchId"`
	Actions []Action `json:"actions"`
}

// Validate checks that every action carries what its op needs.
func (s Script) Validate() error {
	if s.MatchID == "" {
		return fmt.Errorf("%w: matchId is required", ErrInvalidScript)
	}
	if len(s.Actions) == 0 {
		return fmt.Errorf("%w: no actions", ErrInvalidScript)
	}

	for i, a := range s.Actions {
		var missing string
		switch a.Op {
		case OpToss:
			if a.WinningTeamID == "" {
				missing = "winningTeamId"
			}
		case OpOpeners:
			if a.OnStrikeBatsmanID == "" || a.NonStrikeBatsmanID == "" || a.BowlerID == "" {
				missing = "onStrikeBatsmanId, nonStrikeBatsmanId and bowlerId"
			}
		case OpDelivery:
			if a.Delivery == nil {
				missing = "delivery"
			}
		case OpDismissal:
			if a.Dismissal == nil {
				missing = "dismissal"
			}
		case OpNextBatsman, OpNextBowler:
			if a.PlayerID == "" {
				missing = "playerId"
			}
		case OpUndo:
		default:
			return fmt.Errorf("%w: action %d has unknown op %q", ErrInvalidScript, i+1, a.Op)
		}
		if missing != "" {
			return fmt.Errorf("%w: action %d (%s) needs %s", ErrInvalidScript, i+1, a.Op, missing)
		}
	}
	return nil
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return s, s.Validate()
}

// Spec describes the work to be performed by the runner.
type Spec struct {
	Script Script
	DryRun bool
}

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a queued or finished replay.
type Job struct {
	JobID           string
	MatchID         string
	Script          []byte
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	LastError       sql.NullString
	DryRun          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnScriptStart(spec Spec)
	OnActionApplied(index int, action Action, m *scoring.Match)
	OnProgress(message string, current int, total int)
	OnScriptComplete(m *scoring.Match)
	OnScriptError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
