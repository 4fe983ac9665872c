package scoring

import "fmt"

// CalculateAwards picks the player awards across both innings.
//
// Best batsman is the highest run scorer, the first one found wins a tie. Top
// wicket taker breaks ties on fewer runs conceded. Most economical only
// considers bowlers with at least one full over and ranks them by runs over
// the recorded overs figure.
func CalculateAwards(m *Match) Awards {
	var awards Awards

	batting := append(append([]BattingStat{}, m.Innings1.BattingStats...), m.Innings2.BattingStats...)
	if len(batting) > 0 {
		best := batting[0]
		for _, b := range batting[1:] {
			if b.Runs > best.Runs {
				best = b
			}
		}
		awards.BestBatsmanID = NullID(best.ID)
	}

	bowling := append(append([]Bowler{}, m.Innings1.BowlingStats...), m.Innings2.BowlingStats...)
	if len(bowling) > 0 {
		top := bowling[0]
		for _, b := range bowling[1:] {
			if b.Wickets > top.Wickets || (b.Wickets == top.Wickets && b.Runs < top.Runs) {
				top = b
			}
		}
		awards.TopWicketTakerID = NullID(top.ID)
	}

	var economical *Bowler
	for i := range bowling {
		b := &bowling[i]
		if b.Overs < 1 {
			continue
		}
		if economical == nil || runsPerRecordedOver(*b) < runsPerRecordedOver(*economical) {
			economical = b
		}
	}
	if economical != nil {
		awards.MostEconomicalBowlerID = NullID(economical.ID)
	}

	return awards
}

// runsPerRecordedOver ranks bowlers for the economy award. It divides by the
// overs figure as recorded, so 1.3 overs counts as 1.3 rather than 1.5.
func runsPerRecordedOver(b Bowler) float64 {
	return float64(b.Runs) / b.Overs
}

// Economy is runs conceded per over, counting part overs by balls bowled.
// The scorecard shows it; the award uses runsPerRecordedOver.
func Economy(b Bowler) float64 {
	balls := BallsFromOvers(b.Overs)
	if balls == 0 {
		return 0
	}
	return float64(b.Runs) * BallsPerOver / float64(balls)
}

// ResultKind is how a finished match was decided.
type ResultKind string

const (
	ResultByRuns    ResultKind = "runs"
	ResultByWickets ResultKind = "wickets"
	ResultTie       ResultKind = "tie"
)

// Result is the decided outcome of a completed match.
type Result struct {
	Kind     ResultKind `json:"kind"`
	WinnerID string     `json:"winnerId,omitempty"`
	Margin   int        `json:"margin"`
	Summary  string     `json:"summary"`
}

// MatchResult derives the outcome from the two innings totals.
func MatchResult(m *Match) (Result, error) {
	if m.Status != StatusCompleted {
		return Result{}, ErrMatchNotCompleted
	}

	first, second := m.Innings1, m.Innings2
	switch {
	case second.Score > first.Score:
		margin := m.Rules.MaxWickets() - second.Wickets
		return Result{
			Kind:     ResultByWickets,
			WinnerID: string(second.BattingTeamID),
			Margin:   margin,
			Summary:  fmt.Sprintf("%s won by %d %s", second.BattingTeamName, margin, plural(margin, "wicket")),
		}, nil
	case first.Score > second.Score:
		margin := first.Score - second.Score
		return Result{
			Kind:     ResultByRuns,
			WinnerID: string(first.BattingTeamID),
			Margin:   margin,
			Summary:  fmt.Sprintf("%s won by %d %s", first.BattingTeamName, margin, plural(margin, "run")),
		}, nil
	}
	return Result{Kind: ResultTie, Summary: "Match tied"}, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
