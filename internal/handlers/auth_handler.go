package handlers

import (
	"net/http"
	"time"

	"bookbuddy/internal/models"
	"bookbuddy/internal/security"
	"bookbuddy/internal/service"
)

// AuthHandler handles authentication and account HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// TokenResponse is returned by every successful sign-in
type TokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Parent    *models.Parent `json:"parent"`
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, status int, result *service.LoginResult) {
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, result.Token, result.ExpiresAt))
	respondJSON(w, status, TokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Parent:    result.Parent,
	})
}

// Register creates a parent account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.FullName); err != nil {
		writeServiceError(w, "Error registering parent", err)
		return
	}

	// Auto-login after registration
	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "Error signing in after registration", err)
		return
	}

	h.signIn(w, r, http.StatusCreated, result)
}

// Login exchanges email and password for an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "Error logging in", err)
		return
	}

	h.signIn(w, r, http.StatusOK, result)
}

// Logout revokes the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(sessionIDFromContext(r.Context())); err != nil {
		writeServiceError(w, "Error logging out", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the signed-in parent
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	if parent == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	profile, err := h.authService.GetProfile(parent.ID)
	if err != nil {
		writeServiceError(w, "Error getting profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the parent's display name
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	if parent == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		FullName string `json:"full_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.authService.UpdateProfile(parent.ID, req.FullName)
	if err != nil {
		writeServiceError(w, "Error updating profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// DeleteAccount permanently removes the parent and all family data
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	if parent == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), parent.ID); err != nil {
		writeServiceError(w, "Error deleting account", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}
