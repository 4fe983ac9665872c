package rest

import (
	"errors"
	"net/http"

	"github.com/fortuna/khelset/internal/replay"
)

// ReplayHandler exposes the replay job queue.
type ReplayHandler struct {
	service *replay.Service
}

// NewReplayHandler wires the REST layer to the replay service.
func NewReplayHandler(service *replay.Service) *ReplayHandler {
	return &ReplayHandler{service: service}
}

type replayRequest struct {
	replay.Script
	DryRun bool `json:"dryRun"`
}

// HandleReplayRequest handles POST /api/v1/replay
func (h *ReplayHandler) HandleReplayRequest(w http.ResponseWriter, r *http.Request) {
	var req replayRequest
	if !decode(w, r, &req) {
		return
	}

	job, err := h.service.Enqueue(r.Context(), req.Script, req.DryRun)
	if errors.Is(err, replay.ErrInvalidScript) {
		respondError(w, http.StatusUnprocessableEntity, "Invalid replay script", err)
		return
	}
	if err != nil {
		logger.Printf("❌ Failed to enqueue replay for %s: %v", req.MatchID, err)
		respondError(w, http.StatusInternalServerError, "Failed to enqueue replay job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleReplayStatus handles GET /api/v1/replay/status
func (h *ReplayHandler) HandleReplayStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *replay.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active replay",
	}

	if active := summary.ActiveJob; active != nil {
		response["status"] = active.Status
		if active.StatusMessage.Valid {
			response["message"] = active.StatusMessage.String
		}
		response["active_job"] = jobPayload(active)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}
	response["history"] = history

	return response
}

func jobPayload(job *replay.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"match_id":         job.MatchID,
		"status":           job.Status,
		"dry_run":          job.DryRun,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
