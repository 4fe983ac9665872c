package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCommentary(t *testing.T) {
	tests := []struct {
		in   CommentaryParams
		want string
	}{
		{CommentaryParams{IsWicket: true, WicketType: WicketHitWicket}, "WICKET! hit wicket."},
		{CommentaryParams{IsWicket: true}, "WICKET! run out."},
		{CommentaryParams{ExtraType: ExtraWide}, "wide ball."},
		{CommentaryParams{ExtraType: ExtraWide, Runs: 1}, "wide +1 run. Total 2 extras."},
		{CommentaryParams{ExtraType: ExtraWide, Runs: 4}, "wide +4 runs. Total 5 extras."},
		{CommentaryParams{ExtraType: ExtraNoBall}, "no ball."},
		{CommentaryParams{ExtraType: ExtraNoBall, Runs: 2}, "no ball +2 runs. Total 3 extras."},
		{CommentaryParams{ExtraType: ExtraBye, Runs: 1}, "1 bye."},
		{CommentaryParams{ExtraType: ExtraBye, Runs: 4}, "4 byes."},
		{CommentaryParams{ExtraType: ExtraLegBye, Runs: 2}, "2 leg byes."},
		{CommentaryParams{}, "no run."},
		{CommentaryParams{Runs: 1}, "1 run."},
		{CommentaryParams{Runs: 3}, "3 runs."},
		{CommentaryParams{Runs: 4}, "FOUR"},
		{CommentaryParams{Runs: 6}, "SIX"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateCommentary(tt.in))
	}
}

func TestNewDelivery(t *testing.T) {
	m := t20(t)
	m, _ = bowl(t, m, dot())
	m, _ = bowl(t, m, dot())

	p := DeliveryParams{Runs: 2, ExtraType: ExtraWide}
	res, err := ProcessDelivery(m, p)
	assert.NoError(t, err)

	d := NewDelivery(m, p, res, "ball-x")
	assert.Equal(t, Delivery{
		BallID:      "ball-x",
		OverNumber:  0,
		BallInOver:  2,
		BatsmanID:   "a1",
		BowlerID:    "b1",
		BatsmanName: "Asha",
		BowlerName:  "Chandra",
		RunsScored:  RunsScored{Batsman: 0, Extras: 3, Total: 3},
		ExtraType:   ExtraWide,
		Commentary:  "wide +2 runs. Total 3 extras.",
	}, d)

	AppendDelivery(res.Match, d)
	assert.Len(t, res.Match.Current().DeliveryHistory, 3)
	assert.Len(t, m.Current().DeliveryHistory, 2)
}

func TestNewBallID(t *testing.T) {
	a, b := NewBallID(), NewBallID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
