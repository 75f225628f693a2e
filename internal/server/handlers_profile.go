package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/jobpilot/internal/parser"
	"github.com/jonathan/jobpilot/internal/types"
)

// maxResumeBytes bounds uploaded resume text.
const maxResumeBytes = 1 << 20

// handleGetProfile serves the caller's profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	profile, err := s.db.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, 0, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleUpdateProfile replaces the caller's profile. Identity fields are
// owned by the account and cannot be changed here.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}
	var profile types.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	profile.UserID = userID

	if err := s.db.SaveUserProfile(r.Context(), &profile); err != nil {
		writeError(w, http.StatusInternalServerError, 0, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleParseResume extracts contact details, skills and suited roles from
// uploaded resume text and merges them into the caller's profile.
func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxResumeBytes))
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, 0, "resume text is required")
		return
	}

	text := string(body)
	if r.Header.Get("Content-Type") == "application/json" {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Text == "" {
			writeError(w, http.StatusBadRequest, 0, "text is required")
			return
		}
		text = req.Text
	}

	parsed := parser.ParseResume(text)

	profile, err := s.db.GetUserProfile(r.Context(), userID)
	if err == nil {
		profile.ResumeText = text
		for _, skill := range parsed.Skills {
			if !hasSkill(profile, skill) {
				profile.SkillsDetailed = append(profile.SkillsDetailed, types.SkillDetail{Name: skill})
			}
		}
		for _, role := range parsed.SuitedRoles {
			if !containsString(profile.SuitedRoles, role) {
				profile.SuitedRoles = append(profile.SuitedRoles, role)
			}
		}
		if err := s.db.SaveUserProfile(r.Context(), profile); err != nil {
			writeError(w, http.StatusInternalServerError, 0, "failed to save profile")
			return
		}
	}

	writeJSON(w, http.StatusOK, parsed)
}

func hasSkill(profile *types.UserProfile, name string) bool {
	for _, s := range profile.SkillsDetailed {
		if s.Name == name {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
