package replay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/khelset/internal/scoring"
)

// JobStore is the persistence the job worker needs.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	ResetStuckJobs(ctx context.Context) error
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
}

// Service queues replay jobs and runs them one at a time in the background.
type Service struct {
	repo   JobStore
	runner *Runner

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo JobStore, runner *Runner, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[replay] ", log.LstdFlags)
	}

	return &Service{
		repo:         repo,
		runner:       runner,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for it to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates script and queues it.
func (s *Service) Enqueue(ctx context.Context, script Script, dryRun bool) (*Job, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(script)
	if err != nil {
		return nil, fmt.Errorf("encoding script: %w", err)
	}

	job := &Job{
		MatchID:       script.MatchID,
		Script:        raw,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(script.Actions),
		DryRun:        dryRun,
	}

	return s.repo.CreateJob(ctx, job)
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		job, err := s.repo.MarkNextJobRunning(s.ctx)
		if err != nil {
			s.logger.Printf("claim job error: %v", err)
		}
		if err != nil || job == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		s.executeJob(job)
	}
}

func (s *Service) executeJob(job *Job) {
	var script Script
	if err := json.Unmarshal(job.Script, &script); err != nil {
		s.logger.Printf("invalid script in job %s: %v", job.JobID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid script", err)
		return
	}

	reporter := &jobReporter{
		ctx:   s.ctx,
		repo:  s.repo,
		jobID: job.JobID,
		total: len(script.Actions),
	}

	if _, err := s.runner.Run(s.ctx, Spec{Script: script, DryRun: job.DryRun}, reporter); err != nil {
		s.logger.Printf("❌ Replay %s for match %s failed: %v", job.JobID, job.MatchID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Replay failed", err)
		return
	}

	s.logger.Printf("✓ Replay %s for match %s completed (dry_run=%v)", job.JobID, job.MatchID, job.DryRun)
	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Replay completed", nil)
}

type jobReporter struct {
	ctx   context.Context
	repo  JobStore
	jobID string
	total int
}

func (r *jobReporter) OnScriptStart(spec Spec) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Replay starting")
}

func (r *jobReporter) OnActionApplied(int, Action, *scoring.Match) {}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnScriptComplete(*scoring.Match) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Replay complete")
}

func (r *jobReporter) OnScriptError(error) {}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
