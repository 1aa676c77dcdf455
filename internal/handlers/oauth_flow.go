package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"bookbuddy/internal/security"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

// OAuthProviderView describes a sign-in option for the client
type OAuthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type oauthUserInfo struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// ListOAuthProviders returns the configured sign-in providers
func (h *AuthHandler) ListOAuthProviders(w http.ResponseWriter, r *http.Request) {
	views := []OAuthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/auth/%s/start", key),
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := security.GenerateSessionID()
	h.setTempCookie(w, r, oauthStateCookie, state, 10*time.Minute)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookie))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	userInfo, err := fetchOAuthUser(ctx, provider, token)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch OAuth profile", "OAuth user info failed", err)
		return
	}

	result, err := h.authService.OAuthLogin(providerKey, userInfo.Subject, userInfo.Email, userInfo.Name, userInfo.EmailVerified)
	if err != nil {
		writeServiceError(w, "Error completing OAuth login", err)
		return
	}

	h.signIn(w, r, http.StatusOK, result)
}

func fetchOAuthUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: %w", provider.Label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: status %d", provider.Label, resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
		// v2 userinfo and OIDC name the flag differently
		VerifiedEmail *bool `json:"verified_email"`
		EmailVerified *bool `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info: %w", provider.Label, err)
	}

	subject := payload.ID
	if subject == "" {
		subject = payload.Sub
	}
	if subject == "" || payload.Email == "" {
		return oauthUserInfo{}, errors.New("oauth profile is missing id or email")
	}

	verified := (payload.VerifiedEmail != nil && *payload.VerifiedEmail) ||
		(payload.EmailVerified != nil && *payload.EmailVerified)

	return oauthUserInfo{Subject: subject, Email: payload.Email, Name: payload.Name, EmailVerified: verified}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	cookie := security.CreateSessionCookie(r, name, value, time.Now().Add(ttl))
	cookie.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, cookie)
}
