package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/service"
	"github.com/fortuna/khelset/internal/undo"
)

type staticRoster struct{}

func (staticRoster) PlayersOfTeam(_ context.Context, teamID string) ([]scoring.Player, error) {
	out := make([]scoring.Player, 0, 4)
	for _, n := range []string{"1", "2", "3", "4"} {
		out = append(out, scoring.Player{ID: teamID[:1] + n, Name: teamID + " " + n})
	}
	return out, nil
}

func (staticRoster) Names(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"lions": "Lions", "tigers": "Tigers"}, nil
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, checks map[string]HealthChecker) *mux.Router {
	t.Helper()
	store := service.NewMemoryStore(scoring.NewMatch("m1", "e1", "lions", "tigers",
		scoring.MatchRules{TotalOvers: 2, PlayersPerTeam: 4, MaxOversPerBowler: 1}))
	svc := service.NewScoringService(store, staticRoster{}, nil,
		undo.NewController(undo.NewMemoryStore()), log.New(io.Discard, "", 0))
	return NewRouter(NewHandler(svc, nil, checks), nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestScoringFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, body := do(t, router, http.MethodGet, "/api/v1/matches/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(scoring.ActionWaitingForToss), body["nextAction"])

	rec, body = do(t, router, http.MethodPost, "/api/v1/matches/m1/toss",
		`{"winningTeamId":"tigers","decision":"bowl"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(scoring.ActionSelectOpeners), body["nextAction"])

	rec, _ = do(t, router, http.MethodPost, "/api/v1/matches/m1/openers",
		`{"onStrikeBatsmanId":"l1","nonStrikeBatsmanId":"l2","bowlerId":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = do(t, router, http.MethodPost, "/api/v1/matches/m1/deliveries", `{"runs":4,"isLegal":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(scoring.ActionScoring), body["nextAction"])
	assert.Equal(t, false, body["isOverComplete"])
	delivery := body["delivery"].(map[string]interface{})
	assert.Equal(t, "l1", delivery["batsmanId"])

	rec, body = do(t, router, http.MethodPost, "/api/v1/matches/m1/deliveries",
		`{"runs":0,"isLegal":true,"isWicket":true,"wicketType":"caught"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(scoring.ActionConfirmDismissal), body["nextAction"])

	rec, _ = do(t, router, http.MethodPost, "/api/v1/matches/m1/deliveries", `{"runs":1,"isLegal":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/matches/m1/dismissal",
		`{"wicketType":"caught","batsmanId":"l1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = do(t, router, http.MethodPost, "/api/v1/matches/m1/dismissal",
		`{"wicketType":"caught","batsmanId":"l1","fielderId":"t2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(scoring.ActionSelectNextBatsman), body["nextAction"])

	rec, body = do(t, router, http.MethodPost, "/api/v1/matches/m1/batsman", `{"batsmanId":"l3"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(scoring.ActionScoring), body["nextAction"])

	rec, body = do(t, router, http.MethodGet, "/api/v1/matches/m1/scorecard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	innings := body["innings"].([]interface{})
	first := innings[0].(map[string]interface{})
	assert.Equal(t, float64(4), first["score"])
	assert.Equal(t, float64(1), first["wickets"])

	rec, _ = do(t, router, http.MethodGet, "/api/v1/matches/m1/commentary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []service.CommentaryLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 2)
	assert.True(t, lines[0].IsWicket)
	assert.Equal(t, "0.2", lines[0].Over)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/matches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []matchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Lions", summaries[0].Batting)
}

func TestUndoEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	do(t, router, http.MethodPost, "/api/v1/matches/m1/toss", `{"winningTeamId":"lions","decision":"bat"}`)
	do(t, router, http.MethodPost, "/api/v1/matches/m1/openers",
		`{"onStrikeBatsmanId":"l1","nonStrikeBatsmanId":"l2","bowlerId":"t1"}`)

	rec, _ := do(t, router, http.MethodPost, "/api/v1/matches/m1/undo", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	do(t, router, http.MethodPost, "/api/v1/matches/m1/deliveries", `{"runs":6,"isLegal":true}`)

	rec, body := do(t, router, http.MethodPost, "/api/v1/matches/m1/undo", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	match := body["match"].(map[string]interface{})
	innings := match["innings1"].(map[string]interface{})
	assert.Equal(t, float64(0), innings["score"])
}

func TestErrorMapping(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown match", http.MethodGet, "/api/v1/matches/zz", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/v1/matches/m1/toss", `{"winningTeamId":`, http.StatusBadRequest},
		{"openers before toss", http.MethodPost, "/api/v1/matches/m1/openers",
			`{"onStrikeBatsmanId":"l1","nonStrikeBatsmanId":"l2","bowlerId":"t1"}`, http.StatusConflict},
		{"toss by a stranger", http.MethodPost, "/api/v1/matches/m1/toss",
			`{"winningTeamId":"bears","decision":"bat"}`, http.StatusUnprocessableEntity},
		{"unknown rule", http.MethodPatch, "/api/v1/matches/m1/rules", `{"ballsPerOver":8}`, http.StatusUnprocessableEntity},
		{"empty rules", http.MethodPatch, "/api/v1/matches/m1/rules", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, float64(tt.want), body["status"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCorrectRulesEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, body := do(t, router, http.MethodPatch, "/api/v1/matches/m1/rules", `{"totalOvers":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rules := body["match"].(map[string]interface{})["rules"].(map[string]interface{})
	assert.Equal(t, float64(5), rules["totalOvers"])
	assert.Equal(t, float64(4), rules["playersPerTeam"])

	rec, _ = do(t, router, http.MethodPost, "/api/v1/matches/m1/toss", `{"winningTeamId":"lions","decision":"bat"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = do(t, router, http.MethodPost, "/api/v1/matches/m1/openers",
		`{"onStrikeBatsmanId":"l1","nonStrikeBatsmanId":"l2","bowlerId":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = do(t, router, http.MethodPatch, "/api/v1/matches/m1/rules", `{"playersPerTeam":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, float64(http.StatusConflict), body["status"])
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, map[string]HealthChecker{
		"postgres": checkFunc(func(context.Context) error { return nil }),
		"redis":    checkFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec, body := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "connection refused", deps["redis"])
}

func TestCORSPreflight(t *testing.T) {
	handler := CORSMiddleware(newTestRouter(t, nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/matches/m1/deliveries", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
