package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/types"
)

// applyRequest is the body for the single-job apply endpoint.
type applyRequest struct {
	JobID    uuid.UUID `json:"job_id"`
	Strategy string    `json:"strategy,omitempty"`
}

// applyResponse mirrors the executor result on the wire.
type applyResponse struct {
	Application    *types.Application `json:"application"`
	AlreadyApplied bool               `json:"already_applied"`
	Strategy       string             `json:"strategy,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// handleApply submits one application. Idempotent on (user, job): repeats
// return the existing application with already_applied set.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == uuid.Nil {
		writeError(w, http.StatusBadRequest, 0, "job_id is required")
		return
	}

	resp := s.applyOne(r, userID, req.JobID, req.Strategy)
	status := http.StatusOK
	if resp.Error != "" && resp.Application == nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// bulkApplyRequest is the body for the bulk apply endpoint.
type bulkApplyRequest struct {
	JobIDs   []uuid.UUID `json:"job_ids"`
	Strategy string      `json:"strategy,omitempty"`
}

// handleBulkApply submits to every listed job sequentially, collecting the
// per-job outcome. One failure never aborts the batch.
func (s *Server) handleBulkApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	var req bulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.JobIDs) == 0 {
		writeError(w, http.StatusBadRequest, 0, "job_ids is required")
		return
	}

	results := make([]applyResponse, 0, len(req.JobIDs))
	for _, jobID := range req.JobIDs {
		results = append(results, s.applyOne(r, userID, jobID, req.Strategy))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleQuickApplyMatching applies to the caller's best-scoring unapplied
// jobs, up to limit.
func (s *Server) handleQuickApplyMatching(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	var req struct {
		Limit    int    `json:"limit,omitempty"`
		Strategy string `json:"strategy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	scores, err := s.db.ListTopScores(r.Context(), userID, s.cfg.EngineVersion, s.cfg.MinScoreThreshold, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to list matches")
		return
	}

	results := make([]applyResponse, 0, len(scores))
	for _, score := range scores {
		results = append(results, s.applyOne(r, userID, score.JobID, req.Strategy))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// applyOne runs the full apply path for one (user, job): load profile and
// job, reuse or build the packet, submit through the executor.
func (s *Server) applyOne(r *http.Request, userID int64, jobID uuid.UUID, strategy string) applyResponse {
	ctx := r.Context()

	user, err := s.db.GetUserProfile(ctx, userID)
	if err != nil || user == nil {
		return applyResponse{Error: "failed to load profile"}
	}
	job, err := s.db.GetJobPosting(ctx, jobID)
	if err != nil || job == nil {
		return applyResponse{Error: (&ErrNotFound{Resource: "job", ID: jobID.String()}).Error()}
	}

	packet, err := s.db.GetPreparedJob(ctx, userID, jobID)
	if err != nil || packet == nil {
		score, err := s.db.GetJobScore(ctx, userID, jobID, s.cfg.EngineVersion)
		if err != nil || score == nil {
			score = s.matching.Engine().Score(user, job)
			if err := s.db.SaveJobScore(ctx, score); err != nil {
				log.Printf("[server] failed to save score for job %s: %v", jobID, err)
			}
		}
		packet = s.packets.Build(user, job, score)
		if err := s.db.SavePreparedJob(ctx, packet); err != nil {
			log.Printf("[server] failed to save packet for job %s: %v", jobID, err)
		}
	}

	result, err := s.executor.Apply(ctx, user, job, packet, strategy)
	resp := applyResponse{}
	if result != nil {
		resp.Application = result.Application
		resp.AlreadyApplied = result.AlreadyApplied
		resp.Strategy = result.Strategy
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// handleListApplications serves the caller's applications, newest first.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	filters := db.ApplicationFilters{UserID: userID}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := types.ParseApplicationStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, 0, err.Error())
			return
		}
		filters.Statuses = []types.ApplicationStatus{status}
	}

	apps, err := s.db.ListApplications(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to list applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps, "count": len(apps)})
}

// handleApplicationEvents serves the ordered lifecycle of one application.
func (s *Server) handleApplicationEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid application id")
		return
	}
	app, err := s.db.GetApplication(r.Context(), id)
	if err != nil || app == nil || app.UserID != userID {
		writeError(w, http.StatusNotFound, 0, (&ErrNotFound{Resource: "application", ID: id.String()}).Error())
		return
	}

	eventList, err := s.db.ListApplicationEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"application": app, "events": eventList})
}

// handleUpdateStatus applies a manual status delta through the same
// arbitration path the monitors use.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid application id")
		return
	}
	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	status, err := types.ParseApplicationStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}

	app, err := s.db.GetApplication(r.Context(), id)
	if err != nil || app == nil || app.UserID != userID {
		writeError(w, http.StatusNotFound, 0, (&ErrNotFound{Resource: "application", ID: id.String()}).Error())
		return
	}

	applied, err := s.tracking.ApplyDelta(r.Context(), userID, &types.StatusDelta{
		ApplicationID: id,
		Status:        status,
		Source:        types.DeltaSourceManual,
		Confidence:    1.0,
		Notes:         req.Notes,
		ReceivedAt:    time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "status": status})
}
