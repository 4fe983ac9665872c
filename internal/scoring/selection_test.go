package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordToss(t *testing.T) {
	tests := []struct {
		name                string
		winner              string
		decision            TossDecision
		batFirst, bowlFirst NullID
		batFirstName        string
	}{
		{"winner bats", "B", TossBat, "B", "A", "Tigers"},
		{"winner bowls", "B", TossBowl, "A", "B", "Lions"},
		{"team A bowls", "A", TossBowl, "B", "A", "Tigers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatch("m", "e", "A", "B", MatchRules{TotalOvers: 10, PlayersPerTeam: 11})
			next, err := RecordToss(m, TossParams{WinnerID: tt.winner, Decision: tt.decision, TeamNames: lions})
			require.NoError(t, err)

			assert.Equal(t, NullID(tt.winner), next.TossWinnerID)
			assert.Equal(t, tt.decision, next.TossDecision)
			assert.Equal(t, tt.batFirst, next.Innings1.BattingTeamID)
			assert.Equal(t, tt.bowlFirst, next.Innings1.BowlingTeamID)
			assert.Equal(t, tt.batFirstName, next.Innings1.BattingTeamName)
			assert.Equal(t, tt.bowlFirst, next.Innings2.BattingTeamID)
			assert.Equal(t, tt.batFirst, next.Innings2.BowlingTeamID)
			assert.True(t, m.TossWinnerID.IsZero(), "input untouched")
			assert.Equal(t, ActionSelectOpeners, NextActionFor(next))
		})
	}
}

func TestRecordToss_Errors(t *testing.T) {
	m := NewMatch("m", "e", "A", "B", MatchRules{})
	assert.Equal(t, ActionWaitingForToss, NextActionFor(m))

	_, err := RecordToss(m, TossParams{WinnerID: "C", Decision: TossBat})
	assert.ErrorIs(t, err, ErrUnknownTeam)

	_, err = RecordToss(m, TossParams{WinnerID: "A", Decision: "field"})
	assert.ErrorIs(t, err, ErrInvalidTossDecision)

	next, err := RecordToss(m, TossParams{WinnerID: "A", Decision: TossBat})
	require.NoError(t, err)
	assert.Equal(t, "TBD", next.Innings1.BattingTeamName)

	_, err = RecordToss(next, TossParams{WinnerID: "B", Decision: TossBat})
	assert.ErrorIs(t, err, ErrTossAlreadyRecorded)
	assert.True(t, IsPrecondition(err))
}

func TestSelectOpeningPlayers(t *testing.T) {
	m := NewMatch("m", "e", "A", "B", MatchRules{TotalOvers: 10, PlayersPerTeam: 11})
	_, err := SelectOpeningPlayers(m, opener, second, seamer)
	assert.ErrorIs(t, err, ErrTossNotRecorded)

	m, err = RecordToss(m, TossParams{WinnerID: "A", Decision: TossBat})
	require.NoError(t, err)

	_, err = SelectOpeningPlayers(m, opener, opener, seamer)
	assert.ErrorIs(t, err, ErrSamePlayer)

	live, err := SelectOpeningPlayers(m, opener, second, seamer)
	require.NoError(t, err)
	assert.Equal(t, StatusLive, live.Status)
	assert.Len(t, live.Innings1.BattingStats, 2)
	assert.Equal(t, NotOut, live.Innings1.BattingStats[0].Status)
	require.Len(t, live.Innings1.BowlingStats, 1)
	assert.True(t, live.Innings1.BowlingStats[0].IsCurrent)
	assert.Equal(t, ActionScoring, NextActionFor(live))

	_, err = SelectOpeningPlayers(live, opener, second, seamer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelectNextBatsman(t *testing.T) {
	m, _ := bowl(t, t20(t), DeliveryParams{IsLegal: true, IsWicket: true, WicketType: WicketBowled})

	_, err := SelectNextBatsman(m, Player{ID: "a3", Name: "Hari"})
	assert.ErrorIs(t, err, ErrDismissalPending)

	m, err = ProcessWicket(m, WicketBowled, "a1", "")
	require.NoError(t, err)

	_, err = SelectNextBatsman(m, opener)
	assert.ErrorIs(t, err, ErrBatsmanAlreadyIn)

	next, err := SelectNextBatsman(m, Player{ID: "a3", Name: "Hari"})
	require.NoError(t, err)
	assert.Equal(t, NullID("a3"), next.OnStrikeBatsmanID)
	assert.Equal(t, NullID("a2"), next.NonStrikeBatsmanID)
	assert.Len(t, next.Current().BattingStats, 3)
	assert.Equal(t, ActionScoring, NextActionFor(next))

	_, err = SelectNextBatsman(next, Player{ID: "a4", Name: "Indu"})
	assert.ErrorIs(t, err, ErrNoVacantSlot)
}

func TestSelectNextBowler(t *testing.T) {
	m := newLiveMatch(t, MatchRules{TotalOvers: 20, PlayersPerTeam: 11, MaxOversPerBowler: 1})
	_, err := SelectNextBowler(m, Player{ID: "b2"})
	assert.ErrorIs(t, err, ErrBowlerAlreadyActive)

	for i := 0; i < 6; i++ {
		m, _ = bowl(t, m, dot())
	}
	require.True(t, m.CurrentBowlerID.IsZero())

	_, err = SelectNextBowler(m, seamer)
	assert.ErrorIs(t, err, ErrSameBowler)

	m, err = SelectNextBowler(m, Player{ID: "b2", Name: "Gita"})
	require.NoError(t, err)
	assert.Equal(t, NullID("b2"), m.CurrentBowlerID)
	assert.True(t, m.Current().Bowler("b2").IsCurrent)
	assert.False(t, m.Current().Bowler("b1").IsCurrent)

	for i := 0; i < 6; i++ {
		m, _ = bowl(t, m, dot())
	}
	_, err = SelectNextBowler(m, seamer)
	assert.ErrorIs(t, err, ErrBowlerOverLimit)
}
