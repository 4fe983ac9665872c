package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fortuna/khelset/internal/publisher"
	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // scoreboards are embedded on arbitrary sites
	},
}

// Subscriber delivers the events published for one match. onReady runs
// once the subscription is live.
type Subscriber interface {
	Subscribe(ctx context.Context, matchID string, onReady func(), onChange func(publisher.Event)) error
}

// MatchSource provides the current document sent to a new watcher.
type MatchSource interface {
	GetMatch(ctx context.Context, matchID string) (*scoring.Match, error)
}

// Server streams match events to websocket clients.
type Server struct {
	port    string
	server  *http.Server
	hub     *Hub
	subs    Subscriber
	matches MatchSource

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	watches map[string]context.CancelFunc

	logger *log.Logger
}

// NewServer creates a websocket server and starts its hub. matches may be
// nil, in which case clients get no initial snapshot.
func NewServer(subs Subscriber, matches MatchSource) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		subs:    subs,
		matches: matches,
		ctx:     ctx,
		cancel:  cancel,
		watches: make(map[string]context.CancelFunc),
		logger:  log.New(log.Writer(), "[ws] ", log.LstdFlags),
	}
	s.hub = NewHub(s.watch, s.unwatch)
	go s.hub.Run(ctx)

	return s
}

// Handler returns the routes served by the websocket server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/matches/{matchID}", s.handleMatch)
	mux.HandleFunc("GET /ws/health", s.handleHealth)
	return mux
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.Handler(),
	}

	s.logger.Printf("WebSocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleMatch upgrades the connection and streams one match's events.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("matchID")

	if s.matches != nil {
		_, err := s.matches.GetMatch(r.Context(), matchID)
		if errors.Is(err, service.ErrMatchNotFound) {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:     s.hub,
		conn:    conn,
		matchID: matchID,
		send:    make(chan []byte, 256),
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	// The snapshot is read after joining so nothing published from here on
	// is missed. Pumps are not running yet, so this is the only writer.
	if snapshot := s.snapshot(r.Context(), matchID); snapshot != nil {
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			s.hub.leave(client)
			conn.Close()
			return
		}
	}

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.mu.Lock()
	watched := len(s.watches)
	s.mu.Unlock()
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d, "matches": %d}`, s.hub.ClientCount(""), watched)
}

// watch subscribes to a match once it gains a watcher.
func (s *Server) watch(matchID string) {
	ctx, cancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	if prev, ok := s.watches[matchID]; ok {
		prev()
	}
	s.watches[matchID] = cancel
	s.mu.Unlock()

	// Updates published before the subscription went live reach nobody, so
	// the room gets a fresh snapshot once it is.
	ready := func() {
		if snapshot := s.snapshot(ctx, matchID); snapshot != nil {
			s.hub.Broadcast(matchID, snapshot)
		}
	}

	go func() {
		err := s.subs.Subscribe(ctx, matchID, ready, func(e publisher.Event) {
			data, err := json.Marshal(e)
			if err != nil {
				return
			}
			s.hub.Broadcast(matchID, data)
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Printf("❌ Subscription to %s ended: %v", matchID, err)
		}
	}()
}

func (s *Server) unwatch(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.watches[matchID]; ok {
		cancel()
		delete(s.watches, matchID)
	}
}

// snapshot encodes the current match as a match_update event. It returns
// nil when there is nothing to send.
func (s *Server) snapshot(ctx context.Context, matchID string) []byte {
	if s.matches == nil {
		return nil
	}
	m, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		s.logger.Printf("⚠️  Snapshot for %s failed: %v", matchID, err)
		return nil
	}
	data, err := encodeEvent(publisher.EventMatchUpdate, matchID, m)
	if err != nil {
		s.logger.Printf("⚠️  Encoding snapshot for %s: %v", matchID, err)
		return nil
	}
	return data
}

func encodeEvent(eventType, matchID string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(publisher.Event{Type: eventType, MatchID: matchID, Data: data})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
