package scoring

import "github.com/google/uuid"

// NewBallID returns a fresh delivery identifier.
func NewBallID() string {
	return uuid.NewString()
}

// NewDelivery builds the record for a ball from the state before it was bowled
// and the processor's result. A wicket that stood is stored with an empty
// batsman id until ProcessWicket confirms who was out.
func NewDelivery(before *Match, p DeliveryParams, res DeliveryResult, ballID string) Delivery {
	prev := before.Current()
	striker := prev.Batsman(before.OnStrikeBatsmanID)
	bowler := prev.Bowler(before.CurrentBowlerID)

	d := Delivery{
		BallID:     ballID,
		OverNumber: CompletedOvers(prev.Overs),
		BallInOver: res.Match.Current().BallsInOver,
		RunsScored: RunsScored{
			Batsman: res.Runs.Batsman,
			Extras:  res.Runs.Extras,
			Total:   res.Runs.Total,
		},
		ExtraType: p.ExtraType,
		IsWicket:  res.IsWicketFallen,
		IsLegal:   p.IsLegal && p.ExtraType != ExtraWide && p.ExtraType != ExtraNoBall,
		Commentary: GenerateCommentary(CommentaryParams{
			Runs:       p.Runs,
			IsWicket:   res.IsWicketFallen,
			ExtraType:  p.ExtraType,
			WicketType: p.WicketType,
		}),
	}
	if striker != nil {
		d.BatsmanID, d.BatsmanName = striker.ID, striker.Name
	}
	if bowler != nil {
		d.BowlerID, d.BowlerName = bowler.ID, bowler.Name
	}
	if res.IsWicketFallen {
		d.WicketInfo = &WicketInfo{Type: p.WicketType}
	}
	return d
}

// AppendDelivery adds d to the current innings history of m in place.
func AppendDelivery(m *Match, d Delivery) {
	innings := m.Current()
	innings.DeliveryHistory = append(innings.DeliveryHistory, d)
}
