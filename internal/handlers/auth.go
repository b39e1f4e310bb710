package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"life-story-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	tokens *services.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

type verifyRequest struct {
	PrivateKey string `json:"privateKey"`
}

type checkRequest struct {
	Token string `json:"token"`
}

// Verify handles POST /api/v1/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PrivateKey == "" {
		respondError(w, "privateKey is required", http.StatusBadRequest)
		return
	}

	token, err := h.tokens.Issue(req.PrivateKey)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("remote", r.RemoteAddr).Msg("Failed verify attempt")
			respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"valid": false,
				"error": "Invalid private key",
			})
			return
		}
		log.Error().Err(err).Msg("Failed to issue token")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("remote", r.RemoteAddr).Msg("Successful authentication")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"token": token,
	})
}

// Check handles POST /api/v1/auth/check
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"valid": false,
			"error": "Token is required",
		})
		return
	}

	valid, err := h.tokens.Validate(req.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"valid": false,
				"error": "Invalid token format",
			})
			return
		}
		log.Error().Err(err).Msg("Failed to check token")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
