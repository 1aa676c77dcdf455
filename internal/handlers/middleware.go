package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"bookbuddy/internal/models"
	"bookbuddy/internal/security"
	"bookbuddy/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ParentContextKey  ContextKey = "parent"
	SessionContextKey ContextKey = "session"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid access token, taken from
// the Authorization header or the session cookie
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		parent, sessionID, err := m.authService.ValidateToken(token)
		if err != nil {
			if _, cookieErr := r.Cookie(security.SessionCookieName); cookieErr == nil {
				http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			}
			writeServiceError(w, "Error validating token", err)
			return
		}

		ctx := context.WithValue(r.Context(), ParentContextKey, parent)
		ctx = context.WithValue(ctx, SessionContextKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// GetParentFromContext retrieves the authenticated parent from the request context
func GetParentFromContext(ctx context.Context) *models.Parent {
	parent, ok := ctx.Value(ParentContextKey).(*models.Parent)
	if !ok {
		return nil
	}
	return parent
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}
