package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchJSONShape(t *testing.T) {
	m := NewMatch("m1", "e1", "A", "B", MatchRules{TotalOvers: 20, PlayersPerTeam: 11, MaxOversPerBowler: 4})

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.NotContains(t, doc, "ID")
	assert.NotContains(t, doc, "awards")
	assert.Equal(t, "Upcoming", doc["status"])
	assert.Equal(t, "A", doc["teamA_id"])
	for _, k := range []string{"onStrikeBatsmanId", "nonStrikeBatsmanId", "currentBowlerId", "previousBowlerId", "tossWinnerId", "tossDecision"} {
		assert.Contains(t, doc, k)
		assert.Nil(t, doc[k], k)
	}

	in := doc["innings1"].(map[string]any)
	assert.Equal(t, "TBD", in["battingTeamName"])
	assert.Nil(t, in["battingTeamId"])
	assert.Equal(t, []any{}, in["deliveryHistory"])
}

func TestMatchJSONRoundTrip(t *testing.T) {
	m, _ := bowl(t, t20(t), DeliveryParams{IsLegal: true, IsWicket: true, WicketType: WicketCaught})
	m, err := ProcessWicket(m, WicketCaught, "a1", "b5")
	require.NoError(t, err)

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var back Match
	require.NoError(t, json.Unmarshal(raw, &back))
	back.ID = m.ID
	assert.Equal(t, m, &back)
	assert.Equal(t, TossBat, back.TossDecision)
}

func TestDeliveryWicketInfoIsNullWhenAbsent(t *testing.T) {
	raw, err := json.Marshal(Delivery{BallID: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"wicketInfo":null`)
	assert.NotContains(t, string(raw), "extraType")
}

func TestOversArithmetic(t *testing.T) {
	assert.Equal(t, 29, BallsFromOvers(4.5))
	assert.Equal(t, 4.5, OversFromBalls(29))
	assert.Equal(t, 5.0, OversFromBalls(30))
	assert.Equal(t, 4, CompletedOvers(4.5))
	for balls := 0; balls < 600; balls++ {
		assert.Equal(t, balls, BallsFromOvers(OversFromBalls(balls)))
	}
}

func TestCloneIsDeep(t *testing.T) {
	m, _ := bowl(t, t20(t), DeliveryParams{IsLegal: true, IsWicket: true})
	c := m.Clone()

	c.Current().BattingStats[0].Runs = 99
	c.Current().DeliveryHistory[0].WicketInfo.BatsmanID = "zz"
	c.Current().BowlingStats[0].Wickets = 5

	assert.Equal(t, 0, m.Current().BattingStats[0].Runs)
	assert.Empty(t, m.Current().DeliveryHistory[0].WicketInfo.BatsmanID)
	assert.Equal(t, 0, m.Current().BowlingStats[0].Wickets)
}

func TestWicketTypeRules(t *testing.T) {
	tests := []struct {
		wicket  WicketType
		credits bool
		fielder bool
		freeHit bool
	}{
		{WicketBowled, true, false, false},
		{WicketCaught, true, true, false},
		{WicketLBW, true, false, false},
		{WicketRunOut, false, true, true},
		{WicketStumped, true, true, true},
		{WicketHitWicket, true, false, false},
		{WicketRetiredHurt, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.wicket), func(t *testing.T) {
			assert.Equal(t, tt.credits, tt.wicket.CreditsBowler())
			assert.Equal(t, tt.fielder, tt.wicket.NeedsFielder())
			assert.Equal(t, tt.freeHit, tt.wicket.SurvivesFreeHit())
		})
	}
}
