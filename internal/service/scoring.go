package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store/repository"
	"github.com/fortuna/khelset/internal/undo"
)

var (
	// ErrMatchNotFound is returned when the store has no such match.
	ErrMatchNotFound = repository.ErrMatchNotFound

	// ErrPlayerNotInSquad is returned when a selected player is not in the
	// squad of the side that needs them.
	ErrPlayerNotInSquad = errors.New("player is not in the squad")

	// ErrUnknownRule is returned for a rules correction naming no known rule.
	ErrUnknownRule = errors.New("unknown rule")
)

// MatchStore persists match documents.
type MatchStore interface {
	Get(ctx context.Context, matchID string) (*scoring.Match, error)
	Save(ctx context.Context, m *scoring.Match) error
	Patch(ctx context.Context, matchID string, patch map[string]interface{}) (*scoring.Match, error)
	ListByStatus(ctx context.Context, statuses ...scoring.MatchStatus) ([]*scoring.Match, error)
}

// Roster resolves squads and team names.
type Roster interface {
	PlayersOfTeam(ctx context.Context, teamID string) ([]scoring.Player, error)
	Names(ctx context.Context, teamIDs ...string) (map[string]string, error)
}

// Broadcaster fans match changes out to live viewers.
type Broadcaster interface {
	PublishMatchUpdate(ctx context.Context, matchID string, match interface{}) error
	PublishDelivery(ctx context.Context, matchID string, delivery interface{}) error
	PublishMatchResult(ctx context.Context, matchID string, result interface{}) error
}

// DismissalParams confirm who got out and how.
type DismissalParams struct {
	WicketType scoring.WicketType `json:"wicketType"`
	BatsmanID  string             `json:"batsmanId"`
	FielderID  string             `json:"fielderId,omitempty"`

	// CompletedRuns are the runs finished before a run out when the wicket
	// is recorded without a preceding wicket delivery.
	CompletedRuns int `json:"completedRuns,omitempty"`
}

// Outcome is what a scoring operation returns to the scorer.
type Outcome struct {
	scoring.DeliveryResult
	Delivery   *scoring.Delivery  `json:"delivery,omitempty"`
	NextAction scoring.NextAction `json:"nextAction"`
	Match      *scoring.Match     `json:"match"`
}

// ScoringService applies scorer actions to stored matches. Every mutating
// call holds the match's lock from load to save.
type ScoringService struct {
	store  MatchStore
	roster Roster
	bus    Broadcaster
	undo   *undo.Controller

	locks  sync.Map
	logger *log.Logger
}

// NewScoringService wires the collaborators together. bus may be nil.
func NewScoringService(store MatchStore, roster Roster, bus Broadcaster, undoCtl *undo.Controller, logger *log.Logger) *ScoringService {
	if logger == nil {
		logger = log.New(log.Writer(), "[scoring] ", log.LstdFlags)
	}
	return &ScoringService{
		store:  store,
		roster: roster,
		bus:    bus,
		undo:   undoCtl,
		logger: logger,
	}
}

func (s *ScoringService) lock(matchID string) func() {
	mu, _ := s.locks.LoadOrStore(matchID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// GetMatch loads a match.
func (s *ScoringService) GetMatch(ctx context.Context, matchID string) (*scoring.Match, error) {
	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match: %w", err)
	}
	return m, nil
}

// ListMatches returns matches in the given states, Live and Innings Break
// when none are given.
func (s *ScoringService) ListMatches(ctx context.Context, statuses ...scoring.MatchStatus) ([]*scoring.Match, error) {
	if len(statuses) == 0 {
		statuses = []scoring.MatchStatus{scoring.StatusLive, scoring.StatusInningsBreak}
	}
	matches, err := s.store.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return matches, nil
}

// Squad returns a team's players.
func (s *ScoringService) Squad(ctx context.Context, teamID string) ([]scoring.Player, error) {
	players, err := s.roster.PlayersOfTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("loading squad %s: %w", teamID, err)
	}
	return players, nil
}

// RecordToss stores the toss and sets the batting order of both innings.
func (s *ScoringService) RecordToss(ctx context.Context, matchID, winnerID string, decision scoring.TossDecision) (*scoring.Match, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	names, err := s.roster.Names(ctx, m.TeamAID, m.TeamBID)
	if err != nil {
		return nil, fmt.Errorf("loading team names: %w", err)
	}

	next, err := scoring.RecordToss(m, scoring.TossParams{WinnerID: winnerID, Decision: decision, TeamNames: names})
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	s.logger.Printf("Toss %s: %s won, chose to %s", matchID, winnerID, decision)
	return next, nil
}

// SelectOpeningPlayers puts the openers and first bowler of an innings in
// place and starts play.
func (s *ScoringService) SelectOpeningPlayers(ctx context.Context, matchID, strikerID, nonStrikerID, bowlerID string) (*scoring.Match, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	cur := m.Current()
	striker, err := s.findPlayer(ctx, cur.BattingTeamID, strikerID)
	if err != nil {
		return nil, err
	}
	nonStriker, err := s.findPlayer(ctx, cur.BattingTeamID, nonStrikerID)
	if err != nil {
		return nil, err
	}
	bowler, err := s.findPlayer(ctx, cur.BowlingTeamID, bowlerID)
	if err != nil {
		return nil, err
	}

	next, err := scoring.SelectOpeningPlayers(m, striker, nonStriker, bowler)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	// The first innings is closed for good once the second gets going.
	if next.CurrentInnings == 2 {
		if err := s.undo.Discard(ctx, matchID); err != nil {
			s.logger.Printf("⚠️  Failed to discard undo snapshot for %s: %v", matchID, err)
		}
	}

	s.logger.Printf("Innings %d of %s under way: %s and %s, %s to bowl",
		next.CurrentInnings, matchID, striker.Name, nonStriker.Name, bowler.Name)
	return next, nil
}

// SelectNextBatsman fills the vacant crease slot.
func (s *ScoringService) SelectNextBatsman(ctx context.Context, matchID, playerID string) (*scoring.Match, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPlayer(ctx, m.Current().BattingTeamID, playerID)
	if err != nil {
		return nil, err
	}

	next, err := scoring.SelectNextBatsman(m, p)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SelectNextBowler hands the ball to a bowler for the new over.
func (s *ScoringService) SelectNextBowler(ctx context.Context, matchID, playerID string) (*scoring.Match, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPlayer(ctx, m.Current().BowlingTeamID, playerID)
	if err != nil {
		return nil, err
	}

	next, err := scoring.SelectNextBowler(m, p)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// RecordDelivery scores one ball. The state before the ball is kept for a
// single undo.
func (s *ScoringService) RecordDelivery(ctx context.Context, matchID string, p scoring.DeliveryParams) (*Outcome, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if scoring.PendingDismissal(m) {
		return nil, scoring.ErrDismissalPending
	}

	res, delivery, err := s.bowl(m, p)
	if err != nil {
		return nil, err
	}

	next := res.Match
	if res.IsInningsOver && !scoring.PendingDismissal(next) {
		if next, err = s.closeInnings(next); err != nil {
			return nil, err
		}
	}
	res.Match = next

	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.keepForUndo(ctx, m)
	s.publishDelivery(ctx, matchID, delivery)

	return &Outcome{
		DeliveryResult: res,
		Delivery:       delivery,
		NextAction:     scoring.NextActionFor(next),
		Match:          next,
	}, nil
}

// ConfirmDismissal records who was out on the last wicket ball. Without a
// pending wicket ball, a legal delivery worth CompletedRuns is bowled first
// and then confirmed. Undo after a confirmation restores the state before
// the wicket ball.
func (s *ScoringService) ConfirmDismissal(ctx context.Context, matchID string, p DismissalParams) (*Outcome, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !p.WicketType.Valid() {
		return nil, fmt.Errorf("%w: %q", scoring.ErrInvalidWicketType, p.WicketType)
	}
	if p.WicketType.NeedsFielder() && p.FielderID == "" {
		return nil, fmt.Errorf("%w: %s", scoring.ErrFielderRequired, p.WicketType)
	}

	out := &Outcome{}
	next := m
	if !scoring.PendingDismissal(m) {
		res, delivery, err := s.bowl(m, scoring.DeliveryParams{
			Runs:       p.CompletedRuns,
			IsLegal:    true,
			IsWicket:   true,
			WicketType: p.WicketType,
		})
		if err != nil {
			return nil, err
		}
		if !res.IsWicketFallen {
			return nil, scoring.ErrWicketNotValid
		}
		out.DeliveryResult = res
		out.Delivery = delivery
		next = res.Match
	}

	next, err = scoring.ProcessWicket(next, p.WicketType, p.BatsmanID, p.FielderID)
	if err != nil {
		return nil, err
	}
	if over, _ := scoring.InningsOver(next); over {
		if next, err = s.closeInnings(next); err != nil {
			return nil, err
		}
		out.IsInningsOver = true
	}
	out.IsWicketFallen = true

	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	// A confirmation completes the ball already snapshotted, so undo still
	// takes the whole wicket ball back.
	if out.Delivery != nil {
		s.keepForUndo(ctx, m)
		s.publishDelivery(ctx, matchID, out.Delivery)
	}

	s.logger.Printf("Wicket in %s: %s %s", matchID, p.BatsmanID, p.WicketType)

	out.Match = next
	out.NextAction = scoring.NextActionFor(next)
	return out, nil
}

// UndoLastDelivery restores the state saved before the last scoring action.
func (s *ScoringService) UndoLastDelivery(ctx context.Context, matchID string) (*scoring.Match, error) {
	defer s.lock(matchID)()

	restored, err := s.undo.Undo(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, restored); err != nil {
		s.keepForUndo(ctx, restored)
		return nil, err
	}

	s.logger.Printf("Undo applied to %s", matchID)
	return restored, nil
}

var correctableRules = map[string]bool{
	"totalOvers":        true,
	"playersPerTeam":    true,
	"maxOversPerBowler": true,
	"customRulesText":   true,
}

// CorrectRules patches individual rules of a match. Rules are fixed once
// the first innings opens.
func (s *ScoringService) CorrectRules(ctx context.Context, matchID string, rules map[string]interface{}) (*scoring.Match, error) {
	defer s.lock(matchID)()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != scoring.StatusUpcoming {
		return nil, fmt.Errorf("%w: rules are fixed once the match is %s", scoring.ErrInvalidTransition, m.Status)
	}

	patch := make(map[string]interface{}, len(rules))
	for key, value := range rules {
		if !correctableRules[key] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, key)
		}
		patch["rules."+key] = value
	}

	next, err := s.store.Patch(ctx, matchID, patch)
	if err != nil {
		return nil, fmt.Errorf("patching rules: %w", err)
	}
	s.publishUpdate(ctx, next)
	return next, nil
}

// bowl processes a ball and appends its record, closing the over when the
// innings carries on.
func (s *ScoringService) bowl(m *scoring.Match, p scoring.DeliveryParams) (scoring.DeliveryResult, *scoring.Delivery, error) {
	res, err := scoring.ProcessDelivery(m, p)
	if err != nil {
		return res, nil, err
	}

	d := scoring.NewDelivery(m, p, res, scoring.NewBallID())
	scoring.AppendDelivery(res.Match, d)

	if res.IsOverComplete && !res.IsInningsOver {
		res.Match = scoring.ProcessEndOfOver(res.Match)
	}
	return res, &d, nil
}

func (s *ScoringService) closeInnings(m *scoring.Match) (*scoring.Match, error) {
	_, reason := scoring.InningsOver(m)
	innings := m.CurrentInnings

	next, err := scoring.OnInningsOver(m)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("Innings %d of %s over (%s)", innings, m.ID, reason)
	return next, nil
}

// keepForUndo replaces the held snapshot with before, the state a saved
// ball started from. When that fails the older snapshot is dropped so undo
// never rolls back further than one ball.
func (s *ScoringService) keepForUndo(ctx context.Context, before *scoring.Match) {
	err := s.undo.Snapshot(ctx, before)
	if err == nil {
		return
	}
	s.logger.Printf("⚠️  Undo snapshot for %s not saved: %v", before.ID, err)
	if err := s.undo.Discard(ctx, before.ID); err != nil {
		s.logger.Printf("❌ Failed to drop stale undo snapshot for %s: %v", before.ID, err)
	}
}

// commit persists m and announces it.
func (s *ScoringService) commit(ctx context.Context, m *scoring.Match) error {
	for _, defect := range scoring.Validate(m) {
		s.logger.Printf("❌ Inconsistent state in %s: %v", m.ID, defect)
	}

	if err := s.store.Save(ctx, m); err != nil {
		return fmt.Errorf("saving match: %w", err)
	}

	s.publishUpdate(ctx, m)
	if m.Status == scoring.StatusCompleted {
		s.publishResult(ctx, m)
	}
	return nil
}

func (s *ScoringService) publishUpdate(ctx context.Context, m *scoring.Match) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishMatchUpdate(ctx, m.ID, m); err != nil {
		s.logger.Printf("⚠️  Failed to publish update for %s: %v", m.ID, err)
	}
}

func (s *ScoringService) publishDelivery(ctx context.Context, matchID string, d *scoring.Delivery) {
	if s.bus == nil || d == nil {
		return
	}
	if err := s.bus.PublishDelivery(ctx, matchID, d); err != nil {
		s.logger.Printf("⚠️  Failed to publish delivery for %s: %v", matchID, err)
	}
}

func (s *ScoringService) publishResult(ctx context.Context, m *scoring.Match) {
	if s.bus == nil {
		return
	}
	result, err := scoring.MatchResult(m)
	if err != nil {
		return
	}
	if err := s.bus.PublishMatchResult(ctx, m.ID, result); err != nil {
		s.logger.Printf("⚠️  Failed to publish result for %s: %v", m.ID, err)
	}
}

func (s *ScoringService) findPlayer(ctx context.Context, teamID scoring.NullID, playerID string) (scoring.Player, error) {
	if teamID.IsZero() {
		return scoring.Player{}, scoring.ErrTossNotRecorded
	}
	if playerID == "" {
		return scoring.Player{}, fmt.Errorf("%w: no player given", ErrPlayerNotInSquad)
	}

	squad, err := s.roster.PlayersOfTeam(ctx, teamID.String())
	if err != nil {
		return scoring.Player{}, fmt.Errorf("loading squad %s: %w", teamID, err)
	}
	for _, p := range squad {
		if p.ID == playerID {
			return p, nil
		}
	}
	return scoring.Player{}, fmt.Errorf("%w: %s not in %s", ErrPlayerNotInSquad, playerID, teamID)
}
