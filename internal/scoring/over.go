package scoring

import "math"

// ProcessEndOfOver closes the over that just finished: the overs counter is
// rounded up, the batsmen change ends and the bowler is stood down so a
// different bowler has to be picked for the next over.
func ProcessEndOfOver(m *Match) *Match {
	next := m.Clone()
	innings := next.Current()

	innings.Overs = math.Ceil(innings.Overs)
	innings.BallsInOver = 0

	next.OnStrikeBatsmanID, next.NonStrikeBatsmanID = next.NonStrikeBatsmanID, next.OnStrikeBatsmanID

	if b := innings.Bowler(next.CurrentBowlerID); b != nil {
		b.IsCurrent = false
	}
	next.PreviousBowlerID = next.CurrentBowlerID
	next.CurrentBowlerID = ""

	return next
}
