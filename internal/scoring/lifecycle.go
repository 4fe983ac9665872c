package scoring

import (
	"fmt"
	"math"
)

// InningsEndReason says which condition closed an innings.
type InningsEndReason string

const (
	EndNone          InningsEndReason = ""
	EndAllOut        InningsEndReason = "all_out"
	EndOversComplete InningsEndReason = "overs_complete"
	EndTargetReached InningsEndReason = "target_reached"
)

// transitions lists every status change the engine may make.
var transitions = map[MatchStatus][]MatchStatus{
	StatusUpcoming:     {StatusLive},
	StatusLive:         {StatusInningsBreak, StatusCompleted},
	StatusInningsBreak: {StatusLive},
}

// CanTransition reports whether a match may move from one status to another.
func CanTransition(from, to MatchStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves m to the given status or fails without touching it.
func Transition(m *Match, to MatchStatus) error {
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
	}
	m.Status = to
	return nil
}

// InningsOver checks the current innings against the three closing
// conditions. Any one of them is enough.
func InningsOver(m *Match) (bool, InningsEndReason) {
	innings := m.Current()
	if innings.Wickets >= m.Rules.MaxWickets() {
		return true, EndAllOut
	}
	if m.CurrentInnings == 2 && innings.Score >= m.Innings1.Score+1 {
		return true, EndTargetReached
	}
	if m.Rules.TotalOvers > 0 && CompletedOvers(innings.Overs) >= m.Rules.TotalOvers {
		return true, EndOversComplete
	}
	return false, EndNone
}

// OnInningsOver closes the current innings. After the first innings the match
// goes to the break and every active pointer is cleared so fresh openers are
// picked; after the second it is completed and the awards are computed.
func OnInningsOver(m *Match) (*Match, error) {
	if m.Status != StatusLive {
		return nil, ErrMatchNotLive
	}

	next := m.Clone()
	innings := next.Current()
	if innings.BallsInOver >= BallsPerOver {
		innings.Overs = math.Ceil(innings.Overs)
		innings.BallsInOver = 0
	}
	for i := range innings.BowlingStats {
		innings.BowlingStats[i].IsCurrent = false
	}

	next.OnStrikeBatsmanID = ""
	next.NonStrikeBatsmanID = ""
	next.CurrentBowlerID = ""
	next.PreviousBowlerID = ""
	next.IsFreeHit = false

	if next.CurrentInnings == 1 {
		if err := Transition(next, StatusInningsBreak); err != nil {
			return nil, err
		}
		next.CurrentInnings = 2
		return next, nil
	}

	if err := Transition(next, StatusCompleted); err != nil {
		return nil, err
	}
	awards := CalculateAwards(next)
	next.Awards = &awards
	return next, nil
}
