package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/jobpilot/internal/db"
)

// handleListJobs serves the job search feed. Filters: source, location,
// min_quality, limit; only active postings are returned.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.JobPostingFilters{
		Source:     q.Get("source"),
		Location:   q.Get("location"),
		ActiveOnly: true,
	}
	if v := q.Get("min_quality"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MinQuality = f
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Limit = n
		}
	}

	jobs, err := s.db.ListJobPostings(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// handleGetJob serves one posting by id.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid job id")
		return
	}
	job, err := s.db.GetJobPosting(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, 0, (&ErrNotFound{Resource: "job", ID: id.String()}).Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleMatches serves the caller's scored jobs, best first.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	minScore := s.cfg.MinScoreThreshold
	if v := r.URL.Query().Get("min_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			minScore = f
		}
	}

	scores, err := s.db.ListTopScores(r.Context(), userID, s.cfg.EngineVersion, minScore, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to list matches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": scores, "count": len(scores)})
}
