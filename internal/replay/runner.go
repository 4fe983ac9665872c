package replay

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/service"
	"github.com/fortuna/khelset/internal/undo"
)

// Runner plays scripts through the scoring service.
type Runner struct {
	live   *service.ScoringService
	store  service.MatchStore
	roster service.Roster
}

// NewRunner constructs a runner. Real runs go through live so they queue
// behind scorers on the same match; dry runs load the match from store
// and score a private copy.
func NewRunner(live *service.ScoringService, store service.MatchStore, roster service.Roster) *Runner {
	return &Runner{live: live, store: store, roster: roster}
}

// Run applies every action in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, spec Spec, reporter Reporter) (*scoring.Match, error) {
	script := spec.Script
	if err := script.Validate(); err != nil {
		return nil, err
	}

	if reporter != nil {
		reporter.OnScriptStart(spec)
	}

	svc := r.live
	if spec.DryRun {
		m, err := r.store.Get(ctx, script.MatchID)
		if err != nil {
			if reporter != nil {
				reporter.OnScriptError(err)
			}
			return nil, fmt.Errorf("loading match: %w", err)
		}
		svc = service.NewScoringService(
			service.NewMemoryStore(m),
			r.roster,
			nil,
			undo.NewController(undo.NewMemoryStore()),
			log.New(io.Discard, "", 0),
		)
		if reporter != nil {
			reporter.OnProgress("Dry-run mode: no data will be written", 0, len(script.Actions))
		}
	}

	var m *scoring.Match
	total := len(script.Actions)
	for idx, action := range script.Actions {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		next, err := apply(ctx, svc, script.MatchID, action)
		if err != nil {
			err = fmt.Errorf("action %d (%s): %w", idx+1, action.Op, err)
			if reporter != nil {
				reporter.OnScriptError(err)
			}
			return m, err
		}
		m = next

		if reporter != nil {
			reporter.OnActionApplied(idx, action, m)
			reporter.OnProgress(fmt.Sprintf("Applied %s", action.Op), idx+1, total)
		}
	}

	if reporter != nil {
		reporter.OnScriptComplete(m)
	}
	return m, nil
}

func apply(ctx context.Context, svc *service.ScoringService, matchID string, a Action) (*scoring.Match, error) {
	switch a.Op {
	case OpToss:
		return svc.RecordToss(ctx, matchID, a.WinningTeamID, a.Decision)
	case OpOpeners:
		return svc.SelectOpeningPlayers(ctx, matchID, a.OnStrikeBatsmanID, a.NonStrikeBatsmanID, a.BowlerID)
	case OpDelivery:
		out, err := svc.RecordDelivery(ctx, matchID, *a.Delivery)
		if err != nil {
			return nil, err
		}
		return out.Match, nil
	case OpDismissal:
		out, err := svc.ConfirmDismissal(ctx, matchID, *a.Dismissal)
		if err != nil {
			return nil, err
		}
		return out.Match, nil
	case OpNextBatsman:
		return svc.SelectNextBatsman(ctx, matchID, a.PlayerID)
	case OpNextBowler:
		return svc.SelectNextBowler(ctx, matchID, a.PlayerID)
	case OpUndo:
		return svc.UndoLastDelivery(ctx, matchID)
	}
	return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidScript, a.Op)
}
