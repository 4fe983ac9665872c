package scoring

import "fmt"

// PendingDismissal reports whether the last ball of the current innings took a
// wicket that the scorer has not confirmed yet.
func PendingDismissal(m *Match) bool {
	last := m.Current().LastDelivery()
	return last != nil && last.IsWicket && last.WicketInfo != nil && last.WicketInfo.BatsmanID == ""
}

// ProcessWicket records a confirmed dismissal on a copy of m. The innings
// wicket count was already advanced by ProcessDelivery and is left alone.
func ProcessWicket(m *Match, wicketType WicketType, batsmanID, fielderID string) (*Match, error) {
	if m.Status != StatusLive {
		return nil, ErrMatchNotLive
	}
	if !wicketType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWicketType, wicketType)
	}
	if wicketType.NeedsFielder() && fielderID == "" {
		return nil, fmt.Errorf("%w: %s", ErrFielderRequired, wicketType)
	}

	next := m.Clone()
	innings := next.Current()

	batsman := innings.Batsman(NullID(batsmanID))
	if batsman == nil {
		return nil, fmt.Errorf("%w: %s", ErrBatsmanNotFound, batsmanID)
	}
	if batsman.Status == Out {
		return nil, fmt.Errorf("%w: %s", ErrBatsmanAlreadyOut, batsmanID)
	}

	// The over may already have been closed, so the bowler of record is the
	// one who delivered the last ball.
	bowlerID := next.CurrentBowlerID
	last := innings.LastDelivery()
	if last != nil {
		bowlerID = NullID(last.BowlerID)
	}

	batsman.Status = Out
	batsman.Dismissal = &Dismissal{
		Type:      wicketType,
		FielderID: fielderID,
		BowlerID:  string(bowlerID),
	}

	if wicketType.CreditsBowler() {
		if b := innings.Bowler(bowlerID); b != nil {
			b.Wickets++
		}
	}

	switch NullID(batsmanID) {
	case next.OnStrikeBatsmanID:
		next.OnStrikeBatsmanID = ""
	case next.NonStrikeBatsmanID:
		next.NonStrikeBatsmanID = ""
	}

	if PendingDismissal(m) {
		last.WicketInfo.Type = wicketType
		last.WicketInfo.BatsmanID = batsmanID
		last.WicketInfo.FielderID = fielderID
		last.Commentary = GenerateCommentary(CommentaryParams{IsWicket: true, WicketType: wicketType})
	}

	return next, nil
}
