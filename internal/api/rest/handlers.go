package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/service"
	"github.com/fortuna/khelset/internal/store/repository"
	"github.com/fortuna/khelset/internal/undo"
)

// HealthChecker is a dependency the health endpoint pings.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	scoring *service.ScoringService
	players *service.PlayerService
	checks  map[string]HealthChecker
}

// NewHandler creates a new handler. players may be nil when no roster
// database is attached.
func NewHandler(svc *service.ScoringService, players *service.PlayerService, checks map[string]HealthChecker) *Handler {
	return &Handler{scoring: svc, players: players, checks: checks}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "khelset",
		"version":      "1.0.0",
		"dependencies": deps,
	})
}

// ListMatches handles GET /api/v1/matches?status=Live
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var statuses []scoring.MatchStatus
	for _, s := range r.URL.Query()["status"] {
		statuses = append(statuses, scoring.MatchStatus(s))
	}

	matches, err := h.scoring.ListMatches(r.Context(), statuses...)
	if err != nil {
		respondServiceError(w, "Failed to list matches", err)
		return
	}

	summaries := make([]matchSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, summarize(m))
	}
	respondJSON(w, http.StatusOK, summaries)
}

// GetMatch returns the full match document.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.scoring.GetMatch(r.Context(), mux.Vars(r)["matchID"])
	if err != nil {
		respondServiceError(w, "Failed to fetch match", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

// GetScorecard returns the derived scorecard.
func (h *Handler) GetScorecard(w http.ResponseWriter, r *http.Request) {
	card, err := h.scoring.GetScorecard(r.Context(), mux.Vars(r)["matchID"])
	if err != nil {
		respondServiceError(w, "Failed to build scorecard", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// GetCommentary returns the ball-by-ball feed, newest first.
func (h *Handler) GetCommentary(w http.ResponseWriter, r *http.Request) {
	lines, err := h.scoring.GetCommentary(r.Context(), mux.Vars(r)["matchID"])
	if err != nil {
		respondServiceError(w, "Failed to fetch commentary", err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

// GetTeamPlayers returns a team's squad.
func (h *Handler) GetTeamPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.scoring.Squad(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		respondServiceError(w, "Failed to fetch players", err)
		return
	}
	respondJSON(w, http.StatusOK, players)
}

// GetTeam returns a team with its squad.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.players.GetTeam(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		respondServiceError(w, "Failed to fetch team", err)
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// GetPlayer returns a player with their team.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	profile, err := h.players.GetPlayer(r.Context(), mux.Vars(r)["playerID"])
	if err != nil {
		respondServiceError(w, "Failed to fetch player", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type tossRequest struct {
	WinningTeamID string               `json:"winningTeamId"`
	Decision      scoring.TossDecision `json:"decision"`
}

// RecordToss handles POST /api/v1/matches/{matchID}/toss
func (h *Handler) RecordToss(w http.ResponseWriter, r *http.Request) {
	var req tossRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.scoring.RecordToss(r.Context(), mux.Vars(r)["matchID"], req.WinningTeamID, req.Decision)
	if err != nil {
		respondServiceError(w, "Failed to record toss", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

type openersRequest struct {
	OnStrikeBatsmanID  string `json:"onStrikeBatsmanId"`
	NonStrikeBatsmanID string `json:"nonStrikeBatsmanId"`
	BowlerID           string `json:"bowlerId"`
}

// SelectOpeners handles POST /api/v1/matches/{matchID}/openers
func (h *Handler) SelectOpeners(w http.ResponseWriter, r *http.Request) {
	var req openersRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.scoring.SelectOpeningPlayers(r.Context(), mux.Vars(r)["matchID"],
		req.OnStrikeBatsmanID, req.NonStrikeBatsmanID, req.BowlerID)
	if err != nil {
		respondServiceError(w, "Failed to select opening players", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

// RecordDelivery handles POST /api/v1/matches/{matchID}/deliveries
func (h *Handler) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	var req scoring.DeliveryParams
	if !decode(w, r, &req) {
		return
	}

	out, err := h.scoring.RecordDelivery(r.Context(), mux.Vars(r)["matchID"], req)
	if err != nil {
		respondServiceError(w, "Failed to record delivery", err)
		return
	}
	respondJSON(w, http.StatusOK, outcomePayload(out))
}

// ConfirmDismissal handles POST /api/v1/matches/{matchID}/dismissal
func (h *Handler) ConfirmDismissal(w http.ResponseWriter, r *http.Request) {
	var req service.DismissalParams
	if !decode(w, r, &req) {
		return
	}

	out, err := h.scoring.ConfirmDismissal(r.Context(), mux.Vars(r)["matchID"], req)
	if err != nil {
		respondServiceError(w, "Failed to confirm dismissal", err)
		return
	}
	respondJSON(w, http.StatusOK, outcomePayload(out))
}

// SelectBatsman handles POST /api/v1/matches/{matchID}/batsman
func (h *Handler) SelectBatsman(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatsmanID string `json:"batsmanId"`
	}
	if !decode(w, r, &req) {
		return
	}

	m, err := h.scoring.SelectNextBatsman(r.Context(), mux.Vars(r)["matchID"], req.BatsmanID)
	if err != nil {
		respondServiceError(w, "Failed to select batsman", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

// SelectBowler handles POST /api/v1/matches/{matchID}/bowler
func (h *Handler) SelectBowler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BowlerID string `json:"bowlerId"`
	}
	if !decode(w, r, &req) {
		return
	}

	m, err := h.scoring.SelectNextBowler(r.Context(), mux.Vars(r)["matchID"], req.BowlerID)
	if err != nil {
		respondServiceError(w, "Failed to select bowler", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

// Undo handles POST /api/v1/matches/{matchID}/undo
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	m, err := h.scoring.UndoLastDelivery(r.Context(), mux.Vars(r)["matchID"])
	if err != nil {
		respondServiceError(w, "Failed to undo", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

// CorrectRules handles PATCH /api/v1/matches/{matchID}/rules
func (h *Handler) CorrectRules(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if !decode(w, r, &req) {
		return
	}
	if len(req) == 0 {
		respondError(w, http.StatusBadRequest, "No rules given", nil)
		return
	}

	m, err := h.scoring.CorrectRules(r.Context(), mux.Vars(r)["matchID"], req)
	if err != nil {
		respondServiceError(w, "Failed to correct rules", err)
		return
	}
	respondJSON(w, http.StatusOK, matchPayload(m))
}

type matchSummary struct {
	ID             string              `json:"id"`
	EventID        string              `json:"eventId"`
	Status         scoring.MatchStatus `json:"status"`
	CurrentInnings int                 `json:"currentInnings"`
	Batting        string              `json:"battingTeamName"`
	Score          int                 `json:"score"`
	Wickets        int                 `json:"wickets"`
	Overs          float64             `json:"overs"`
}

func summarize(m *scoring.Match) matchSummary {
	cur := m.Current()
	return matchSummary{
		ID:             m.ID,
		EventID:        m.EventID,
		Status:         m.Status,
		CurrentInnings: m.CurrentInnings,
		Batting:        cur.BattingTeamName,
		Score:          cur.Score,
		Wickets:        cur.Wickets,
		Overs:          cur.Overs,
	}
}

// matchPayload adds the id and next step to the stored document, which
// keeps its id out of the body.
func matchPayload(m *scoring.Match) map[string]interface{} {
	return map[string]interface{}{
		"id":         m.ID,
		"match":      m,
		"nextAction": scoring.NextActionFor(m),
	}
}

func outcomePayload(out *service.Outcome) map[string]interface{} {
	payload := map[string]interface{}{
		"isOverComplete": out.IsOverComplete,
		"isWicketFallen": out.IsWicketFallen,
		"isInningsOver":  out.IsInningsOver,
		"runsBreakdown":  out.Runs,
		"nextAction":     out.NextAction,
		"match":          out.Match,
	}
	if out.Outcome != "" {
		payload["outcome"] = out.Outcome
	}
	if out.Delivery != nil {
		payload["delivery"] = out.Delivery
	}
	return payload
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, repository.ErrTeamNotFound),
		errors.Is(err, repository.ErrPlayerNotFound):
		return http.StatusNotFound
	case scoring.IsPrecondition(err):
		return http.StatusConflict
	case scoring.IsInvalidOperation(err),
		errors.Is(err, undo.ErrNothingToUndo),
		errors.Is(err, service.ErrPlayerNotInSquad),
		errors.Is(err, service.ErrUnknownRule),
		errors.Is(err, repository.ErrInvalidPatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Printf("❌ %s: %v", message, err)
	}
	respondError(w, status, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
