package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/imcadom/entregas/internal/auth"
	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type loginRequest struct {
	Login    string `json:"usuario"`
	Password string `json:"contrasena"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Login == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "usuario and contrasena required")
		return
	}

	user, err := auth.Verify(r.Context(), h.DB, req.Login, req.Password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		slog.Warn("login failed", "login", req.Login, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.Error("failed to verify credentials", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Login, "via", "api")
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: time.Now().Add(auth.TokenExpiry).UTC()})
}

// Logout handles POST /api/auth/logout. The token stays revoked until it
// would have expired anyway.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if err := store.RevokeToken(r.Context(), h.DB, id.SessionID, id.ExpiresAt); err != nil {
		slog.Error("failed to revoke token", "user", id.Login, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	slog.Info("user logged out", "user", id.Login, "via", "api")
	w.WriteHeader(http.StatusNoContent)
}
