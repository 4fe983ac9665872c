package service

import (
	"context"
	"fmt"
	"math"

	"github.com/fortuna/khelset/internal/scoring"
)

// ExtrasBreakdown splits an innings' extras by kind. Runs taken off a no
// ball that were not hit count as byes.
type ExtrasBreakdown struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noBalls"`
	Byes    int `json:"byes"`
	LegByes int `json:"legByes"`
	Total   int `json:"total"`
}

// BattingLine is one row of the batting card.
type BattingLine struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Runs       int                   `json:"runs"`
	Balls      int                   `json:"balls"`
	Fours      int                   `json:"fours"`
	Sixes      int                   `json:"sixes"`
	StrikeRate float64               `json:"strikeRate"`
	Status     scoring.BattingStatus `json:"status"`
	HowOut     string                `json:"howOut,omitempty"`
	OnStrike   bool                  `json:"onStrike,omitempty"`
}

// BowlingLine is one row of the bowling card.
type BowlingLine struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Overs     float64 `json:"overs"`
	Runs      int     `json:"runs"`
	Wickets   int     `json:"wickets"`
	Economy   float64 `json:"economy"`
	IsCurrent bool    `json:"isCurrent,omitempty"`
}

// InningsCard summarises one innings.
type InningsCard struct {
	Number          int             `json:"number"`
	BattingTeamID   string          `json:"battingTeamId"`
	BattingTeamName string          `json:"battingTeamName"`
	Score           int             `json:"score"`
	Wickets         int             `json:"wickets"`
	Overs           float64         `json:"overs"`
	RunRate         float64         `json:"runRate"`
	Extras          ExtrasBreakdown `json:"extras"`
	Batting         []BattingLine   `json:"batting"`
	Bowling         []BowlingLine   `json:"bowling"`
}

// Scorecard is the read model served to viewers.
type Scorecard struct {
	MatchID         string              `json:"matchId"`
	Status          scoring.MatchStatus `json:"status"`
	CurrentInnings  int                 `json:"currentInnings"`
	IsFreeHit       bool                `json:"isFreeHit"`
	Innings         []InningsCard       `json:"innings"`
	Target          int                 `json:"target,omitempty"`
	RunsNeeded      int                 `json:"runsNeeded,omitempty"`
	BallsRemaining  int                 `json:"ballsRemaining,omitempty"`
	RequiredRunRate float64             `json:"requiredRunRate,omitempty"`
	Result          *scoring.Result     `json:"result,omitempty"`
	Awards          *scoring.Awards     `json:"awards,omitempty"`
	NextAction      scoring.NextAction  `json:"nextAction"`
}

// CommentaryLine is one ball of the commentary feed.
type CommentaryLine struct {
	BallID   string `json:"ballId"`
	Innings  int    `json:"innings"`
	Over     string `json:"over"`
	Bowler   string `json:"bowler"`
	Batsman  string `json:"batsman"`
	Text     string `json:"text"`
	IsWicket bool   `json:"isWicket,omitempty"`
}

// GetScorecard loads a match and builds its scorecard.
func (s *ScoringService) GetScorecard(ctx context.Context, matchID string) (*Scorecard, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return BuildScorecard(m), nil
}

// GetCommentary returns the ball-by-ball feed, newest first.
func (s *ScoringService) GetCommentary(ctx context.Context, matchID string) ([]CommentaryLine, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return Commentary(m), nil
}

// BuildScorecard derives the scorecard of m.
func BuildScorecard(m *scoring.Match) *Scorecard {
	card := &Scorecard{
		MatchID:        m.ID,
		Status:         m.Status,
		CurrentInnings: m.CurrentInnings,
		IsFreeHit:      m.IsFreeHit,
		Awards:         m.Awards,
		NextAction:     scoring.NextActionFor(m),
	}

	card.Innings = append(card.Innings, inningsCard(1, &m.Innings1, m))
	if m.CurrentInnings == 2 || m.Status == scoring.StatusCompleted {
		card.Innings = append(card.Innings, inningsCard(2, &m.Innings2, m))
	}

	if m.CurrentInnings == 2 {
		card.Target = m.Innings1.Score + 1
		if m.Status == scoring.StatusLive {
			card.RunsNeeded = card.Target - m.Innings2.Score
			card.BallsRemaining = m.Rules.TotalOvers*scoring.BallsPerOver - scoring.BallsFromOvers(m.Innings2.Overs)
			if card.BallsRemaining > 0 {
				card.RequiredRunRate = round2(float64(card.RunsNeeded) * scoring.BallsPerOver / float64(card.BallsRemaining))
			}
		}
	}

	if result, err := scoring.MatchResult(m); err == nil {
		card.Result = &result
	}
	return card
}

func inningsCard(number int, in *scoring.Innings, m *scoring.Match) InningsCard {
	card := InningsCard{
		Number:          number,
		BattingTeamID:   in.BattingTeamID.String(),
		BattingTeamName: in.BattingTeamName,
		Score:           in.Score,
		Wickets:         in.Wickets,
		Overs:           in.Overs,
		Extras:          extrasOf(in),
		Batting:         []BattingLine{},
		Bowling:         []BowlingLine{},
	}
	if balls := scoring.BallsFromOvers(in.Overs); balls > 0 {
		card.RunRate = round2(float64(in.Score) * scoring.BallsPerOver / float64(balls))
	}

	live := m.Status == scoring.StatusLive && m.CurrentInnings == number
	for _, b := range in.BattingStats {
		line := BattingLine{
			ID:     b.ID,
			Name:   b.Name,
			Runs:   b.Runs,
			Balls:  b.Balls,
			Fours:  b.Fours,
			Sixes:  b.Sixes,
			Status: b.Status,
			HowOut: howOut(b, in),
		}
		if b.Balls > 0 {
			line.StrikeRate = round2(float64(b.Runs) * 100 / float64(b.Balls))
		}
		line.OnStrike = live && scoring.NullID(b.ID) == m.OnStrikeBatsmanID
		card.Batting = append(card.Batting, line)
	}

	for _, b := range in.BowlingStats {
		card.Bowling = append(card.Bowling, BowlingLine{
			ID:        b.ID,
			Name:      b.Name,
			Overs:     b.Overs,
			Runs:      b.Runs,
			Wickets:   b.Wickets,
			Economy:   round2(scoring.Economy(b)),
			IsCurrent: b.IsCurrent,
		})
	}
	return card
}

func extrasOf(in *scoring.Innings) ExtrasBreakdown {
	var e ExtrasBreakdown
	for _, d := range in.DeliveryHistory {
		switch d.ExtraType {
		case scoring.ExtraWide:
			e.Wides += d.RunsScored.Extras
		case scoring.ExtraNoBall:
			e.NoBalls++
			e.Byes += d.RunsScored.Extras - 1
		case scoring.ExtraBye:
			e.Byes += d.RunsScored.Extras
		case scoring.ExtraLegBye:
			e.LegByes += d.RunsScored.Extras
		}
	}
	e.Total = e.Wides + e.NoBalls + e.Byes + e.LegByes
	return e
}

func howOut(b scoring.BattingStat, in *scoring.Innings) string {
	if b.Status != scoring.Out || b.Dismissal == nil {
		return ""
	}
	d := b.Dismissal
	bowler := nameOf(in, d.BowlerID)
	fielder := nameOf(in, d.FielderID)

	switch d.Type {
	case scoring.WicketBowled:
		return "b " + bowler
	case scoring.WicketLBW:
		return "lbw b " + bowler
	case scoring.WicketCaught:
		if d.FielderID == d.BowlerID {
			return "c & b " + bowler
		}
		return fmt.Sprintf("c %s b %s", fielder, bowler)
	case scoring.WicketStumped:
		return fmt.Sprintf("st %s b %s", fielder, bowler)
	case scoring.WicketRunOut:
		return fmt.Sprintf("run out (%s)", fielder)
	case scoring.WicketHitWicket:
		return "hit wicket b " + bowler
	case scoring.WicketRetiredHurt:
		return "retired hurt"
	}
	return string(d.Type)
}

// nameOf finds a fielding-side player's name from the bowling card,
// falling back to the id for fielders who never bowled.
func nameOf(in *scoring.Innings, id string) string {
	if b := in.Bowler(scoring.NullID(id)); b != nil {
		return b.Name
	}
	return id
}

// Commentary flattens the delivery history of both innings, newest first.
func Commentary(m *scoring.Match) []CommentaryLine {
	lines := []CommentaryLine{}
	for number, in := range []*scoring.Innings{&m.Innings2, &m.Innings1} {
		history := in.DeliveryHistory
		for i := len(history) - 1; i >= 0; i-- {
			d := history[i]
			lines = append(lines, CommentaryLine{
				BallID:   d.BallID,
				Innings:  2 - number,
				Over:     fmt.Sprintf("%d.%d", d.OverNumber, d.BallInOver),
				Bowler:   d.BowlerName,
				Batsman:  d.BatsmanName,
				Text:     d.Commentary,
				IsWicket: d.IsWicket,
			})
		}
	}
	return lines
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
