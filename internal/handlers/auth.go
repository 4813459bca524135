package handlers

import (
	"net/http"

	"stockbot/internal/auth"
)

type tokenRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// Token exchanges configured client credentials for a bearer JWT. The bot
// process is the expected client; the admin credentials yield a token with
// the admin scope.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var admin bool
	switch req.ClientID {
	case h.cfg.AdminClientID:
		if h.cfg.AdminSecretHash == "" || !auth.CheckSecret(h.cfg.AdminSecretHash, req.ClientSecret) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		admin = true
	case h.cfg.BotClientID:
		if h.cfg.BotSecretHash == "" || !auth.CheckSecret(h.cfg.BotSecretHash, req.ClientSecret) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
	default:
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, req.ClientID, admin, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
