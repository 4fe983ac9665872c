package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fortuna/khelset/internal/scoring"
)

// MatchLister finds matches by status.
type MatchLister interface {
	ListByStatus(ctx context.Context, statuses ...scoring.MatchStatus) ([]*scoring.Match, error)
}

// Publisher is where heartbeats and results go.
type Publisher interface {
	PublishMatchUpdate(ctx context.Context, matchID string, match interface{}) error
	PublishMatchResult(ctx context.Context, matchID string, result interface{}) error
}

// Orchestrator republishes in-progress matches on a fixed interval so
// scoreboards that joined late, or missed a message, catch up.
type Orchestrator struct {
	matches   MatchLister
	publisher Publisher
	config    *Config
	cancel    context.CancelFunc

	mu        sync.Mutex
	seeded    bool
	announced map[string]bool
}

// Config holds scheduler configuration
type Config struct {
	HeartbeatInterval time.Duration // Default: 15s
	EnableHeartbeat   bool          // Default: true
	MaxRetries        int           // Default: 3
	RetryDelay        time.Duration // Default: 5s
	MaxErrors         int           // Default: 5
	BackoffDelay      time.Duration // Default: 20s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		HeartbeatInterval: 15 * time.Second,
		EnableHeartbeat:   true,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
		MaxErrors:         5,
		BackoffDelay:      20 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(matches MatchLister, pub Publisher, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Orchestrator{
		matches:   matches,
		publisher: pub,
		config:    config,
		announced: make(map[string]bool),
	}
}

// Start runs the heartbeat until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Printf("Heartbeat: %v (interval: %v)", o.config.EnableHeartbeat, o.config.HeartbeatInterval)

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableHeartbeat {
		go o.runHeartbeat(ctx)
	}

	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

func (o *Orchestrator) runHeartbeat(ctx context.Context) {
	log.Printf("→ Live match heartbeat started (interval: %v)", o.config.HeartbeatInterval)

	ticker := time.NewTicker(o.config.HeartbeatInterval)
	defer ticker.Stop()

	consecutiveErrors := 0

	o.beatWithRetry(ctx, &consecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Live match heartbeat stopped")
			return
		case <-ticker.C:
			o.beatWithRetry(ctx, &consecutiveErrors)
		}
	}
}

// beatWithRetry lists the matches in play, retrying on failure, and
// publishes them.
func (o *Orchestrator) beatWithRetry(ctx context.Context, consecutiveErrors *int) {
	var matches []*scoring.Match
	var err error

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		matches, err = o.matches.ListByStatus(ctx, scoring.StatusLive, scoring.StatusInningsBreak, scoring.StatusCompleted)
		if err == nil {
			*consecutiveErrors = 0
			break
		}

		log.Printf("  ⚠️  Heartbeat attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	if err != nil {
		*consecutiveErrors++
		log.Printf("  ❌ All %d retry attempts failed. Consecutive errors: %d/%d",
			o.config.MaxRetries, *consecutiveErrors, o.config.MaxErrors)

		if *consecutiveErrors >= o.config.MaxErrors {
			log.Printf("  ⚠️  High error rate detected. Backing off %v...", o.config.BackoffDelay)
			select {
			case <-ctx.Done():
			case <-time.After(o.config.BackoffDelay):
			}
		}
		return
	}

	o.publish(ctx, matches)
}

func (o *Orchestrator) publish(ctx context.Context, matches []*scoring.Match) {
	o.mu.Lock()
	defer o.mu.Unlock()

	live := 0
	for _, m := range matches {
		if m.Status != scoring.StatusCompleted {
			live++
			if err := o.publisher.PublishMatchUpdate(ctx, m.ID, m); err != nil {
				log.Printf("  ⚠️  Failed to publish match %s: %v", m.ID, err)
			}
			continue
		}

		if o.announced[m.ID] {
			continue
		}
		o.announced[m.ID] = true
		// Matches already finished when the heartbeat started were announced
		// by whoever finished them.
		if !o.seeded {
			continue
		}

		result, err := scoring.MatchResult(m)
		if err != nil {
			log.Printf("  ⚠️  No result for completed match %s: %v", m.ID, err)
			continue
		}
		if err := o.publisher.PublishMatchResult(ctx, m.ID, result); err != nil {
			log.Printf("  ⚠️  Failed to publish result for %s: %v", m.ID, err)
			continue
		}
		log.Printf("  ✓ %s: %s", m.ID, result.Summary)
	}
	o.seeded = true

	if live > 0 {
		log.Printf("  ✓ Heartbeat published %d live matches", live)
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")
	if o.cancel != nil {
		o.cancel()
	}
	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return map[string]interface{}{
		"heartbeat_enabled":  o.config.EnableHeartbeat,
		"heartbeat_interval": o.config.HeartbeatInterval.String(),
		"results_announced":  len(o.announced),
	}
}
