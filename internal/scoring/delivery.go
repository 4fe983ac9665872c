package scoring

import "fmt"

// DeliveryParams are the raw facts of one ball as reported by the scorer.
type DeliveryParams struct {
	Runs       int        `json:"runs"`
	IsLegal    bool       `json:"isLegal"`
	IsWicket   bool       `json:"isWicket"`
	ExtraType  ExtraType  `json:"extraType,omitempty"`
	WicketType WicketType `json:"wicketType,omitempty"`
	RunType    RunType    `json:"runType,omitempty"`
}

// BallOutcome names what a processed delivery amounted to.
type BallOutcome string

const (
	OutcomeDot    BallOutcome = "dot"
	OutcomeRuns   BallOutcome = "runs"
	OutcomeFour   BallOutcome = "boundary_four"
	OutcomeSix    BallOutcome = "boundary_six"
	OutcomeWide   BallOutcome = "wide"
	OutcomeNoBall BallOutcome = "no_ball"
	OutcomeBye    BallOutcome = "bye"
	OutcomeLegBye BallOutcome = "leg_bye"
	OutcomeWicket BallOutcome = "wicket"
)

// RunsBreakdown attributes the runs of one delivery.
type RunsBreakdown struct {
	Total   int `json:"totalRuns"`
	Batsman int `json:"batsmanRuns"`
	Extras  int `json:"extraRuns"`
	Penalty int `json:"penaltyRuns"`
}

// DeliveryResult is the new match state plus what the ball triggered.
type DeliveryResult struct {
	Match          *Match        `json:"-"`
	IsOverComplete bool          `json:"isOverComplete"`
	IsWicketFallen bool          `json:"isWicketFallen"`
	IsInningsOver  bool          `json:"isInningsOver"`
	Runs           RunsBreakdown `json:"runsBreakdown"`
	Outcome        BallOutcome   `json:"outcome"`
}

func (p DeliveryParams) validate() error {
	if p.Runs < 0 {
		return ErrInvalidRuns
	}
	if !p.ExtraType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidExtraType, p.ExtraType)
	}
	switch p.RunType {
	case "", RunHit, RunBye, RunLegBye:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRunType, p.RunType)
	}
	if p.WicketType != "" && !p.WicketType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWicketType, p.WicketType)
	}
	// Only a wide or no ball may be reported as illegal.
	if !p.IsLegal && p.ExtraType != ExtraWide && p.ExtraType != ExtraNoBall {
		extra := p.ExtraType
		if extra == ExtraNone {
			extra = "none"
		}
		return fmt.Errorf("%w: extra type %s", ErrIllegalWithoutExtra, extra)
	}
	return nil
}

// attribute splits runs between bat and extras, and works out what the bowler
// is charged and how many runs the batsmen physically ran.
func attribute(p DeliveryParams) (rb RunsBreakdown, bowlerCharge, ranRuns int) {
	runType := p.RunType
	if runType == "" {
		runType = RunHit
	}

	switch p.ExtraType {
	case ExtraWide:
		rb.Penalty = 1
		rb.Extras = 1 + p.Runs
		bowlerCharge = rb.Penalty
		ranRuns = p.Runs
	case ExtraNoBall:
		rb.Penalty = 1
		if runType == RunHit {
			rb.Batsman = p.Runs
			rb.Extras = rb.Penalty
			bowlerCharge = rb.Penalty + p.Runs
			ranRuns = rb.Batsman
		} else {
			rb.Extras = rb.Penalty + p.Runs
			bowlerCharge = rb.Penalty
			ranRuns = p.Runs
		}
	case ExtraBye, ExtraLegBye:
		rb.Extras = p.Runs
		ranRuns = p.Runs
	default:
		rb.Batsman = p.Runs
		bowlerCharge = p.Runs
		ranRuns = rb.Batsman
	}
	rb.Total = rb.Batsman + rb.Extras
	return rb, bowlerCharge, ranRuns
}

// ProcessDelivery applies one ball to a copy of m. m itself is never modified.
// The wicket count of the innings is advanced here for a wicket that stands;
// the bowler's credit and the batsman's dismissal are applied by ProcessWicket
// once the scorer confirms the details.
func ProcessDelivery(m *Match, p DeliveryParams) (DeliveryResult, error) {
	if m.Status != StatusLive {
		return DeliveryResult{}, ErrMatchNotLive
	}
	if err := p.validate(); err != nil {
		return DeliveryResult{}, err
	}

	cur := m.Current()
	if cur.Batsman(m.OnStrikeBatsmanID) == nil {
		return DeliveryResult{}, ErrNoStriker
	}
	if cur.Batsman(m.NonStrikeBatsmanID) == nil {
		return DeliveryResult{}, ErrNoNonStriker
	}
	if cur.Bowler(m.CurrentBowlerID) == nil {
		return DeliveryResult{}, ErrNoBowler
	}

	next := m.Clone()
	innings := next.Current()
	striker := innings.Batsman(next.OnStrikeBatsmanID)
	bowler := innings.Bowler(next.CurrentBowlerID)

	rb, bowlerCharge, ranRuns := attribute(p)

	innings.Score += rb.Total
	bowler.Runs += bowlerCharge

	if p.ExtraType != ExtraWide && p.ExtraType != ExtraNoBall {
		striker.Balls++
	}
	if rb.Batsman > 0 {
		striker.Runs += rb.Batsman
		switch rb.Batsman {
		case 4:
			striker.Fours++
		case 6:
			striker.Sixes++
		}
	}

	if ranRuns%2 == 1 {
		next.OnStrikeBatsmanID, next.NonStrikeBatsmanID = next.NonStrikeBatsmanID, next.OnStrikeBatsmanID
	}

	res := DeliveryResult{Match: next, Runs: rb}

	if p.IsLegal && p.ExtraType != ExtraWide && p.ExtraType != ExtraNoBall {
		innings.BallsInOver++
		innings.Overs = OversFromBalls(CompletedOvers(innings.Overs)*BallsPerOver + innings.BallsInOver)
		bowler.Overs = OversFromBalls(CompletedOvers(bowler.Overs)*BallsPerOver + innings.BallsInOver)
		res.IsOverComplete = innings.BallsInOver >= BallsPerOver
	}

	if p.IsWicket && (!m.IsFreeHit || p.WicketType.SurvivesFreeHit()) {
		res.IsWicketFallen = true
		if innings.Wickets < next.Rules.MaxWickets() {
			innings.Wickets++
		}
	}

	next.IsFreeHit = p.ExtraType == ExtraNoBall

	res.IsInningsOver, _ = InningsOver(next)
	res.Outcome = classify(p, rb, res.IsWicketFallen)

	return res, nil
}

func classify(p DeliveryParams, rb RunsBreakdown, wicket bool) BallOutcome {
	if wicket {
		return OutcomeWicket
	}
	switch p.ExtraType {
	case ExtraWide:
		return OutcomeWide
	case ExtraNoBall:
		return OutcomeNoBall
	case ExtraBye:
		return OutcomeBye
	case ExtraLegBye:
		return OutcomeLegBye
	}
	switch rb.Batsman {
	case 0:
		return OutcomeDot
	case 4:
		return OutcomeFour
	case 6:
		return OutcomeSix
	}
	return OutcomeRuns
}
