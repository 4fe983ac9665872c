package scoring

import "fmt"

// TossParams carries the toss outcome and the display names of both sides.
type TossParams struct {
	WinnerID  string
	Decision  TossDecision
	TeamNames map[string]string
}

// RecordToss fixes who bats first. Both innings' team assignments are set
// here and never change afterwards.
func RecordToss(m *Match, p TossParams) (*Match, error) {
	if m.Status != StatusUpcoming {
		return nil, fmt.Errorf("%w: toss after match start", ErrInvalidTransition)
	}
	if !m.TossWinnerID.IsZero() || m.TossDecision != "" {
		return nil, ErrTossAlreadyRecorded
	}
	if p.WinnerID != m.TeamAID && p.WinnerID != m.TeamBID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, p.WinnerID)
	}
	if p.Decision != TossBat && p.Decision != TossBowl {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTossDecision, p.Decision)
	}

	loser := m.TeamAID
	if p.WinnerID == m.TeamAID {
		loser = m.TeamBID
	}
	battingFirst, bowlingFirst := p.WinnerID, loser
	if p.Decision == TossBowl {
		battingFirst, bowlingFirst = loser, p.WinnerID
	}

	name := func(id string) string {
		if n := p.TeamNames[id]; n != "" {
			return n
		}
		return "TBD"
	}

	next := m.Clone()
	next.TossWinnerID = NullID(p.WinnerID)
	next.TossDecision = p.Decision
	next.Innings1.BattingTeamID = NullID(battingFirst)
	next.Innings1.BowlingTeamID = NullID(bowlingFirst)
	next.Innings1.BattingTeamName = name(battingFirst)
	next.Innings2.BattingTeamID = NullID(bowlingFirst)
	next.Innings2.BowlingTeamID = NullID(battingFirst)
	next.Innings2.BattingTeamName = name(bowlingFirst)
	return next, nil
}

// SelectOpeningPlayers starts an innings with two batsmen and a bowler.
func SelectOpeningPlayers(m *Match, striker, nonStriker, bowler Player) (*Match, error) {
	if m.TossWinnerID.IsZero() {
		return nil, ErrTossNotRecorded
	}
	ready := (m.Status == StatusUpcoming && m.CurrentInnings == 1) ||
		(m.Status == StatusInningsBreak && m.CurrentInnings == 2)
	if !ready {
		return nil, fmt.Errorf("%w: openers while %s", ErrInvalidTransition, m.Status)
	}
	if striker.ID == "" {
		return nil, ErrNoStriker
	}
	if nonStriker.ID == "" {
		return nil, ErrNoNonStriker
	}
	if bowler.ID == "" {
		return nil, ErrNoBowler
	}
	if striker.ID == nonStriker.ID {
		return nil, ErrSamePlayer
	}

	next := m.Clone()
	innings := next.Current()
	for _, p := range []Player{striker, nonStriker} {
		if innings.Batsman(NullID(p.ID)) == nil {
			innings.BattingStats = append(innings.BattingStats, newBattingStat(p))
		}
	}
	setCurrentBowler(innings, bowler)

	next.OnStrikeBatsmanID = NullID(striker.ID)
	next.NonStrikeBatsmanID = NullID(nonStriker.ID)
	next.CurrentBowlerID = NullID(bowler.ID)
	next.PreviousBowlerID = ""
	next.IsFreeHit = false

	if err := Transition(next, StatusLive); err != nil {
		return nil, err
	}
	return next, nil
}

// SelectNextBatsman sends in a new batsman to whichever slot is empty, the
// striker's end first.
func SelectNextBatsman(m *Match, p Player) (*Match, error) {
	if m.Status != StatusLive {
		return nil, ErrMatchNotLive
	}
	if PendingDismissal(m) {
		return nil, ErrDismissalPending
	}
	if !m.OnStrikeBatsmanID.IsZero() && !m.NonStrikeBatsmanID.IsZero() {
		return nil, ErrNoVacantSlot
	}
	if p.ID == "" {
		return nil, ErrBatsmanNotFound
	}
	if m.Current().Batsman(NullID(p.ID)) != nil {
		return nil, fmt.Errorf("%w: %s", ErrBatsmanAlreadyIn, p.ID)
	}

	next := m.Clone()
	innings := next.Current()
	innings.BattingStats = append(innings.BattingStats, newBattingStat(p))
	if next.OnStrikeBatsmanID.IsZero() {
		next.OnStrikeBatsmanID = NullID(p.ID)
	} else {
		next.NonStrikeBatsmanID = NullID(p.ID)
	}
	return next, nil
}

// SelectNextBowler puts a bowler on for the new over. The bowler of the last
// over cannot continue, and nobody may exceed the per-bowler over limit.
func SelectNextBowler(m *Match, p Player) (*Match, error) {
	if m.Status != StatusLive {
		return nil, ErrMatchNotLive
	}
	if !m.CurrentBowlerID.IsZero() {
		return nil, ErrBowlerAlreadyActive
	}
	if p.ID == "" {
		return nil, ErrNoBowler
	}
	if NullID(p.ID) == m.PreviousBowlerID {
		return nil, fmt.Errorf("%w: %s", ErrSameBowler, p.ID)
	}
	if existing := m.Current().Bowler(NullID(p.ID)); existing != nil {
		limit := m.Rules.MaxOversPerBowler
		if limit > 0 && CompletedOvers(existing.Overs) >= limit {
			return nil, fmt.Errorf("%w: %s has bowled %d", ErrBowlerOverLimit, p.ID, limit)
		}
	}

	next := m.Clone()
	setCurrentBowler(next.Current(), p)
	next.CurrentBowlerID = NullID(p.ID)
	return next, nil
}

func newBattingStat(p Player) BattingStat {
	return BattingStat{ID: p.ID, Name: p.Name, Status: NotOut}
}

func setCurrentBowler(innings *Innings, p Player) {
	found := false
	for i := range innings.BowlingStats {
		b := &innings.BowlingStats[i]
		b.IsCurrent = b.ID == p.ID
		found = found || b.IsCurrent
	}
	if !found {
		innings.BowlingStats = append(innings.BowlingStats, Bowler{ID: p.ID, Name: p.Name, IsCurrent: true})
	}
}

// NextAction is what the scorer has to do next.
type NextAction string

const (
	ActionWaitingForToss    NextAction = "waiting_for_toss"
	ActionSelectOpeners     NextAction = "selecting_opening_players"
	ActionConfirmDismissal  NextAction = "confirming_dismissal"
	ActionSelectNextBatsman NextAction = "selecting_next_batsman"
	ActionSelectNextBowler  NextAction = "selecting_next_bowler"
	ActionScoring           NextAction = "scoring"
	ActionInningsBreak      NextAction = "innings_break"
	ActionMatchOver         NextAction = "match_over"
)

// NextActionFor derives the scorer's next step from the match state alone.
func NextActionFor(m *Match) NextAction {
	switch m.Status {
	case StatusCompleted:
		return ActionMatchOver
	case StatusInningsBreak:
		return ActionInningsBreak
	case StatusUpcoming:
		if m.TossWinnerID.IsZero() {
			return ActionWaitingForToss
		}
		return ActionSelectOpeners
	}

	switch {
	case PendingDismissal(m):
		return ActionConfirmDismissal
	case m.OnStrikeBatsmanID.IsZero() || m.NonStrikeBatsmanID.IsZero():
		return ActionSelectNextBatsman
	case m.CurrentBowlerID.IsZero():
		return ActionSelectNextBowler
	}
	return ActionScoring
}
