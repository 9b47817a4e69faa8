package handler

import (
	"net/http"

	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
)

const migrationKeptWarning = "Your cart could not be transferred to your account. It was kept and will be transferred at checkout."

// AuthHandler handles login and logout of a session.
type AuthHandler struct {
	views  Views
	logger zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(views Views, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		views:  views,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := viewFor(h.views, r).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	resp := model.LoginResponse{
		Identity:  identityResponse(&result.Identity),
		Migration: migrationResponse(result.Migration),
	}
	if result.MigrationErr != nil {
		resp.Warning = migrationKeptWarning
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	viewFor(h.views, r).Logout(r.Context())
	writeJSON(w, http.StatusOK, identityResponse(nil))
}

// Me handles GET /api/auth/me requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, identityResponse(viewFor(h.views, r).Identity()))
}

func identityResponse(identity *model.Identity) model.IdentityResponse {
	if identity == nil {
		return model.IdentityResponse{Authenticated: false}
	}
	return model.IdentityResponse{
		Authenticated: true,
		UserID:        identity.UserID,
		ClientID:      identity.ClientID,
		Role:          identity.Role,
	}
}
