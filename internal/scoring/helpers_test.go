package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	lions  = map[string]string{"A": "Lions", "B": "Tigers"}
	opener = Player{ID: "a1", Name: "Asha"}
	second = Player{ID: "a2", Name: "Bimal"}
	seamer = Player{ID: "b1", Name: "Chandra"}
)

func newLiveMatch(t *testing.T, rules MatchRules) *Match {
	t.Helper()
	m := NewMatch("m1", "e1", "A", "B", rules)
	m, err := RecordToss(m, TossParams{WinnerID: "A", Decision: TossBat, TeamNames: lions})
	require.NoError(t, err)
	m, err = SelectOpeningPlayers(m, opener, second, seamer)
	require.NoError(t, err)
	return m
}

func t20(t *testing.T) *Match {
	return newLiveMatch(t, MatchRules{TotalOvers: 20, PlayersPerTeam: 11, MaxOversPerBowler: 4})
}

// bowl runs one ball through the same steps the service takes.
func bowl(t *testing.T, m *Match, p DeliveryParams) (*Match, DeliveryResult) {
	t.Helper()
	res, err := ProcessDelivery(m, p)
	require.NoError(t, err)
	next := res.Match
	AppendDelivery(next, NewDelivery(m, p, res, fmt.Sprintf("ball-%d", len(m.Current().DeliveryHistory)+1)))
	if res.IsOverComplete && !res.IsInningsOver {
		next = ProcessEndOfOver(next)
	}
	return next, res
}

func dot() DeliveryParams { return DeliveryParams{IsLegal: true} }

func runs(n int) DeliveryParams { return DeliveryParams{Runs: n, IsLegal: true} }

func battingRuns(in Innings) int {
	total := 0
	for _, b := range in.BattingStats {
		total += b.Runs
	}
	return total
}
