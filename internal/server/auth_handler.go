package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jonathan/jobpilot/internal/types"
)

// handleRegister creates an account and returns a token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		var fieldErr *types.FieldValidationError
		if errors.As(err, &fieldErr) {
			writeError(w, http.StatusBadRequest, 0, fieldErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}

	if existing, err := s.db.GetUserByEmail(r.Context(), req.Email); err == nil && existing != nil {
		writeError(w, http.StatusConflict, 0, (&ErrEmailAlreadyExists{Email: req.Email}).Error())
		return
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		log.Printf("[server] failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, 0, "failed to create account")
		return
	}

	userID, err := s.db.CreateUser(r.Context(), req.FirstName, req.LastName, req.Email, req.Phone, hash)
	if err != nil {
		log.Printf("[server] failed to create user: %v", err)
		writeError(w, http.StatusInternalServerError, 0, "failed to create account")
		return
	}

	token, err := s.jwt.GenerateToken(userID)
	if err != nil {
		log.Printf("[server] failed to generate token: %v", err)
		writeError(w, http.StatusInternalServerError, 0, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, types.LoginResponse{
		User: &types.User{
			ID:        userID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
		Token: token,
	})
}

// handleLogin verifies credentials and returns a token. Invalid email and
// invalid password produce the same response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error())
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil || !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, 0, (&ErrInvalidCredentials{}).Error())
		return
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[server] failed to generate token: %v", err)
		writeError(w, http.StatusInternalServerError, 0, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{User: &user.User, Token: token})
}
