package rest

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/khelset/internal/replay"
	"github.com/fortuna/khelset/internal/service"
)

var logger = log.New(log.Writer(), "[rest] ", log.LstdFlags)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server. replaySvc may be nil, in which
// case the replay routes are not mounted.
func NewServer(port string, svc *service.ScoringService, players *service.PlayerService, replaySvc *replay.Service, checks map[string]HealthChecker) *Server {
	handler := NewHandler(svc, players, checks)

	var replayHandler *ReplayHandler
	if replaySvc != nil {
		replayHandler = NewReplayHandler(replaySvc)
	}

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr: fmt.Sprintf(":%s", port),
			// Preflight requests match no route, so CORS wraps the router.
			Handler: CORSMiddleware(NewRouter(handler, replayHandler)),
		},
	}
}

// NewRouter mounts every route on a fresh router.
func NewRouter(handler *Handler, replayHandler *ReplayHandler) *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Matches
	api.HandleFunc("/matches", handler.ListMatches).Methods("GET")
	api.HandleFunc("/matches/{matchID}", handler.GetMatch).Methods("GET")
	api.HandleFunc("/matches/{matchID}/scorecard", handler.GetScorecard).Methods("GET")
	api.HandleFunc("/matches/{matchID}/commentary", handler.GetCommentary).Methods("GET")
	api.HandleFunc("/matches/{matchID}/rules", handler.CorrectRules).Methods("PATCH")

	// Scoring
	api.HandleFunc("/matches/{matchID}/toss", handler.RecordToss).Methods("POST")
	api.HandleFunc("/matches/{matchID}/openers", handler.SelectOpeners).Methods("POST")
	api.HandleFunc("/matches/{matchID}/deliveries", handler.RecordDelivery).Methods("POST")
	api.HandleFunc("/matches/{matchID}/dismissal", handler.ConfirmDismissal).Methods("POST")
	api.HandleFunc("/matches/{matchID}/batsman", handler.SelectBatsman).Methods("POST")
	api.HandleFunc("/matches/{matchID}/bowler", handler.SelectBowler).Methods("POST")
	api.HandleFunc("/matches/{matchID}/undo", handler.Undo).Methods("POST")

	// Teams and players
	api.HandleFunc("/teams/{teamID}/players", handler.GetTeamPlayers).Methods("GET")
	if handler.players != nil {
		api.HandleFunc("/teams/{teamID}", handler.GetTeam).Methods("GET")
		api.HandleFunc("/players/{playerID}", handler.GetPlayer).Methods("GET")
	}

	// Replay jobs
	if replayHandler != nil {
		api.HandleFunc("/replay", replayHandler.HandleReplayRequest).Methods("POST")
		api.HandleFunc("/replay/status", replayHandler.HandleReplayStatus).Methods("GET")
	}

	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
