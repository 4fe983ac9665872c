package scoring

import (
	"bytes"
	"encoding/json"
)

// MatchStatus is the lifecycle state of a match document.
type MatchStatus string

const (
	StatusUpcoming     MatchStatus = "Upcoming"
	StatusLive         MatchStatus = "Live"
	StatusInningsBreak MatchStatus = "Innings Break"
	StatusCompleted    MatchStatus = "Completed"
)

// ExtraType classifies a delivery that is not a plain ball. The zero value means none.
type ExtraType string

const (
	ExtraNone   ExtraType = ""
	ExtraWide   ExtraType = "wide"
	ExtraNoBall ExtraType = "no_ball"
	ExtraBye    ExtraType = "bye"
	ExtraLegBye ExtraType = "leg_bye"
)

// Valid reports whether e is a known extra type.
func (e ExtraType) Valid() bool {
	switch e {
	case ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye:
		return true
	}
	return false
}

// WicketType enumerates the ways a batsman can be dismissed.
type WicketType string

const (
	WicketBowled      WicketType = "bowled"
	WicketCaught      WicketType = "caught"
	WicketLBW         WicketType = "lbw"
	WicketRunOut      WicketType = "run_out"
	WicketStumped     WicketType = "stumped"
	WicketHitWicket   WicketType = "hit_wicket"
	WicketRetiredHurt WicketType = "retired_hurt"
)

// Valid reports whether w is a known dismissal type.
func (w WicketType) Valid() bool {
	switch w {
	case WicketBowled, WicketCaught, WicketLBW, WicketRunOut, WicketStumped, WicketHitWicket, WicketRetiredHurt:
		return true
	}
	return false
}

// NeedsFielder reports whether the dismissal must name a fielder.
func (w WicketType) NeedsFielder() bool {
	return w == WicketCaught || w == WicketStumped || w == WicketRunOut
}

// CreditsBowler reports whether the bowler is credited with the wicket.
func (w WicketType) CreditsBowler() bool {
	return w != WicketRunOut && w != WicketRetiredHurt
}

// SurvivesFreeHit reports whether the dismissal stands on a free hit.
func (w WicketType) SurvivesFreeHit() bool {
	return w == WicketRunOut || w == WicketStumped
}

// RunType says how runs off a no-ball were made.
type RunType string

const (
	RunHit    RunType = "hit"
	RunBye    RunType = "bye"
	RunLegBye RunType = "leg_bye"
)

// TossDecision is what the toss winner elected to do. Empty means not yet decided.
type TossDecision string

const (
	TossBat  TossDecision = "bat"
	TossBowl TossDecision = "bowl"
)

func (d TossDecision) MarshalJSON() ([]byte, error) {
	return marshalNullable(string(d))
}

func (d *TossDecision) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	*d = TossDecision(s)
	return err
}

// BattingStatus is either not_out or out.
type BattingStatus string

const (
	NotOut BattingStatus = "not_out"
	Out    BattingStatus = "out"
)

// NullID is a document reference that encodes to JSON null when empty.
type NullID string

func (id NullID) String() string { return string(id) }

// IsZero reports whether the reference is unset.
func (id NullID) IsZero() bool { return id == "" }

func (id NullID) MarshalJSON() ([]byte, error) {
	return marshalNullable(string(id))
}

func (id *NullID) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	*id = NullID(s)
	return err
}

func marshalNullable(s string) ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

func unmarshalNullable(b []byte) (string, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return "", nil
	}
	var s string
	err := json.Unmarshal(b, &s)
	return s, err
}

// MatchRules are the per-match settings chosen when the fixture was created.
type MatchRules struct {
	TotalOvers        int    `json:"totalOvers"`
	PlayersPerTeam    int    `json:"playersPerTeam"`
	MaxOversPerBowler int    `json:"maxOversPerBowler"`
	CustomRulesText   string `json:"customRulesText"`
}

// MaxWickets is the number of wickets that ends an innings.
func (r MatchRules) MaxWickets() int {
	return r.PlayersPerTeam - 1
}

// Dismissal records how a batsman got out.
type Dismissal struct {
	Type      WicketType `json:"type"`
	FielderID string     `json:"fielderId,omitempty"`
	BowlerID  string     `json:"bowlerId"`
}

// BattingStat is one batsman's line in an innings.
type BattingStat struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Runs      int           `json:"runs"`
	Balls     int           `json:"balls"`
	Fours     int           `json:"fours"`
	Sixes     int           `json:"sixes"`
	Status    BattingStatus `json:"status"`
	Dismissal *Dismissal    `json:"dismissal,omitempty"`
}

// Bowler is one bowler's line in an innings. Overs uses the completed.balls display form.
type Bowler struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Overs     float64 `json:"overs"`
	Runs      int     `json:"runs"`
	Wickets   int     `json:"wickets"`
	IsCurrent bool    `json:"isCurrent,omitempty"`
}

// RunsScored splits the runs of one delivery.
type RunsScored struct {
	Batsman int `json:"batsman"`
	Extras  int `json:"extras"`
	Total   int `json:"total"`
}

// WicketInfo is the dismissal detail stored on a delivery record.
type WicketInfo struct {
	Type      WicketType `json:"type"`
	BatsmanID string     `json:"batsmanId"`
	FielderID string     `json:"fielderId,omitempty"`
}

// Delivery is the immutable record of one ball.
type Delivery struct {
	BallID      string      `json:"ballId"`
	OverNumber  int         `json:"overNumber"`
	BallInOver  int         `json:"ballInOver"`
	BatsmanID   string      `json:"batsmanId"`
	BowlerID    string      `json:"bowlerId"`
	BatsmanName string      `json:"batsmanName"`
	BowlerName  string      `json:"bowlerName"`
	RunsScored  RunsScored  `json:"runsScored"`
	ExtraType   ExtraType   `json:"extraType,omitempty"`
	IsWicket    bool        `json:"isWicket"`
	IsLegal     bool        `json:"isLegal"`
	WicketInfo  *WicketInfo `json:"wicketInfo"`
	Commentary  string      `json:"commentary,omitempty"`
}

// Innings holds the running totals and ball history of one side's innings.
type Innings struct {
	BattingTeamID   NullID        `json:"battingTeamId"`
	BowlingTeamID   NullID        `json:"bowlingTeamId"`
	BattingTeamName string        `json:"battingTeamName"`
	Score           int           `json:"score"`
	Wickets         int           `json:"wickets"`
	Overs           float64       `json:"overs"`
	BallsInOver     int           `json:"ballsInOver"`
	BattingStats    []BattingStat `json:"battingStats"`
	BowlingStats    []Bowler      `json:"bowlingStats"`
	DeliveryHistory []Delivery    `json:"deliveryHistory"`
}

// Awards are computed once the second innings ends.
type Awards struct {
	BestBatsmanID          NullID `json:"bestBatsmanId"`
	TopWicketTakerID       NullID `json:"topWicketTakerId"`
	MostEconomicalBowlerID NullID `json:"mostEconomicalBowlerId"`
}

// Match is the whole persisted match document. ID is the store key and is not
// part of the document body.
type Match struct {
	ID                 string       `json:"-"`
	EventID            string       `json:"eventId"`
	TeamAID            string       `json:"teamA_id"`
	TeamBID            string       `json:"teamB_id"`
	Status             MatchStatus  `json:"status"`
	CurrentInnings     int          `json:"currentInnings"`
	OnStrikeBatsmanID  NullID       `json:"onStrikeBatsmanId"`
	NonStrikeBatsmanID NullID       `json:"nonStrikeBatsmanId"`
	CurrentBowlerID    NullID       `json:"currentBowlerId"`
	PreviousBowlerID   NullID       `json:"previousBowlerId"`
	IsFreeHit          bool         `json:"isFreeHit"`
	TossWinnerID       NullID       `json:"tossWinnerId"`
	TossDecision       TossDecision `json:"tossDecision"`
	Rules              MatchRules   `json:"rules"`
	Innings1           Innings      `json:"innings1"`
	Innings2           Innings      `json:"innings2"`
	Awards             *Awards      `json:"awards,omitempty"`
}

// Player is a roster entry.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// NewInnings returns the empty innings every fixture starts with.
func NewInnings() Innings {
	return Innings{
		BattingTeamName: "TBD",
		BattingStats:    []BattingStat{},
		BowlingStats:    []Bowler{},
		DeliveryHistory: []Delivery{},
	}
}

// NewMatch builds an Upcoming fixture between two teams.
func NewMatch(id, eventID, teamA, teamB string, rules MatchRules) *Match {
	return &Match{
		ID:             id,
		EventID:        eventID,
		TeamAID:        teamA,
		TeamBID:        teamB,
		Status:         StatusUpcoming,
		CurrentInnings: 1,
		Rules:          rules,
		Innings1:       NewInnings(),
		Innings2:       NewInnings(),
	}
}

// Current returns the innings in progress.
func (m *Match) Current() *Innings {
	if m.CurrentInnings == 2 {
		return &m.Innings2
	}
	return &m.Innings1
}

// Clone returns a deep copy of m.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Innings1 = m.Innings1.clone()
	c.Innings2 = m.Innings2.clone()
	if m.Awards != nil {
		a := *m.Awards
		c.Awards = &a
	}
	return &c
}

func (in Innings) clone() Innings {
	c := in
	c.BattingStats = make([]BattingStat, len(in.BattingStats))
	for i, b := range in.BattingStats {
		if b.Dismissal != nil {
			d := *b.Dismissal
			b.Dismissal = &d
		}
		c.BattingStats[i] = b
	}
	c.BowlingStats = append([]Bowler{}, in.BowlingStats...)
	c.DeliveryHistory = make([]Delivery, len(in.DeliveryHistory))
	for i, d := range in.DeliveryHistory {
		if d.WicketInfo != nil {
			w := *d.WicketInfo
			d.WicketInfo = &w
		}
		c.DeliveryHistory[i] = d
	}
	return c
}

// Batsman returns the batting entry for id in the innings, or nil.
func (in *Innings) Batsman(id NullID) *BattingStat {
	if id.IsZero() {
		return nil
	}
	for i := range in.BattingStats {
		if in.BattingStats[i].ID == string(id) {
			return &in.BattingStats[i]
		}
	}
	return nil
}

// Bowler returns the bowling entry for id in the innings, or nil.
func (in *Innings) Bowler(id NullID) *Bowler {
	if id.IsZero() {
		return nil
	}
	for i := range in.BowlingStats {
		if in.BowlingStats[i].ID == string(id) {
			return &in.BowlingStats[i]
		}
	}
	return nil
}

// Extras is the sum of extra runs recorded in the innings history.
func (in *Innings) Extras() int {
	total := 0
	for _, d := range in.DeliveryHistory {
		total += d.RunsScored.Extras
	}
	return total
}

// LastDelivery returns the most recent delivery record, or nil.
func (in *Innings) LastDelivery() *Delivery {
	if len(in.DeliveryHistory) == 0 {
		return nil
	}
	return &in.DeliveryHistory[len(in.DeliveryHistory)-1]
}
