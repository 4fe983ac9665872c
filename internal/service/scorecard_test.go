package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/khelset/internal/scoring"
)

func TestBuildScorecard_FirstInnings(t *testing.T) {
	f := newFixture(t, shortRules())
	f.start(t)
	ctx := context.Background()

	f.deliver(t, runs(4))
	f.deliver(t, scoring.DeliveryParams{Runs: 1, ExtraType: scoring.ExtraWide})
	f.deliver(t, scoring.DeliveryParams{Runs: 2, ExtraType: scoring.ExtraNoBall, RunType: scoring.RunBye})
	f.deliver(t, scoring.DeliveryParams{Runs: 1, IsLegal: true, ExtraType: scoring.ExtraLegBye})
	f.deliver(t, scoring.DeliveryParams{IsLegal: true, IsWicket: true, WicketType: scoring.WicketCaught})
	_, err := f.svc.ConfirmDismissal(ctx, "m1", DismissalParams{WicketType: scoring.WicketCaught, BatsmanID: "l1", FielderID: "t1"})
	require.NoError(t, err)

	card, err := f.svc.GetScorecard(ctx, "m1")
	require.NoError(t, err)

	require.Len(t, card.Innings, 1)
	in := card.Innings[0]
	assert.Equal(t, "Lions", in.BattingTeamName)
	assert.Equal(t, 4+2+3+1, in.Score)
	assert.Equal(t, 1, in.Wickets)
	assert.Equal(t, 0.3, in.Overs)
	assert.Equal(t, 20.0, in.RunRate)
	assert.Equal(t, ExtrasBreakdown{Wides: 2, NoBalls: 1, Byes: 2, LegByes: 1, Total: 6}, in.Extras)

	require.Len(t, in.Batting, 2)
	assert.Equal(t, 4, in.Batting[0].Runs)
	assert.Equal(t, 2, in.Batting[0].Balls)
	assert.Equal(t, 200.0, in.Batting[0].StrikeRate)
	assert.Equal(t, "c & b Tiger 1", in.Batting[0].HowOut)
	assert.Equal(t, 1, in.Batting[1].Balls)
	assert.Empty(t, in.Batting[1].HowOut)

	require.Len(t, in.Bowling, 1)
	assert.Equal(t, 1, in.Bowling[0].Wickets)
	assert.Equal(t, 6, in.Bowling[0].Runs)
	assert.Equal(t, 12.0, in.Bowling[0].Economy)

	assert.Zero(t, card.Target)
	assert.Nil(t, card.Result)
	assert.Equal(t, scoring.ActionSelectNextBatsman, card.NextAction)
}

func TestBuildScorecard_Chase(t *testing.T) {
	f := newFixture(t, scoring.MatchRules{TotalOvers: 1, PlayersPerTeam: 4})
	f.start(t)
	ctx := context.Background()

	f.deliver(t, runs(6))
	for i := 0; i < 5; i++ {
		f.deliver(t, dot())
	}
	_, err := f.svc.SelectOpeningPlayers(ctx, "m1", "t1", "t2", "l1")
	require.NoError(t, err)
	f.deliver(t, runs(1))
	f.deliver(t, dot())

	card, err := f.svc.GetScorecard(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, card.Innings, 2)
	assert.Equal(t, 7, card.Target)
	assert.Equal(t, 6, card.RunsNeeded)
	assert.Equal(t, 4, card.BallsRemaining)
	assert.Equal(t, 9.0, card.RequiredRunRate)
	assert.True(t, card.Innings[1].Batting[1].OnStrike)
	assert.False(t, card.Innings[0].Batting[0].OnStrike)
}

func TestCommentary_NewestFirst(t *testing.T) {
	f := newFixture(t, shortRules())
	f.start(t)

	f.deliver(t, runs(4))
	f.deliver(t, dot())
	f.deliver(t, scoring.DeliveryParams{ExtraType: scoring.ExtraWide})

	lines, err := f.svc.GetCommentary(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "wide ball.", lines[0].Text)
	assert.Equal(t, "0.2", lines[0].Over)
	assert.Equal(t, "no run.", lines[1].Text)
	assert.Equal(t, "0.1", lines[2].Over)
	assert.Equal(t, "Tiger 1", lines[2].Bowler)
	assert.Equal(t, 1, lines[2].Innings)
}
