package handlers

import "net/http"

// Router bundles the handlers served by the API
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Children   *ChildHandler
	Books      *BookHandler
	Prizes     *PrizeHandler
}

// Routes registers every API route and wraps the mux with request logging
func (rt *Router) Routes() http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes
	mux.HandleFunc("POST /auth/register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /auth/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("GET /auth/providers", rt.Auth.ListOAuthProviders)
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)
	mux.HandleFunc("GET /api/milestones", rt.Children.Milestones)

	// Account
	mux.HandleFunc("POST /auth/logout", m.RequireAuth(rt.Auth.Logout))
	mux.HandleFunc("GET /api/profile", m.RequireAuth(rt.Auth.GetProfile))
	mux.HandleFunc("PATCH /api/profile", m.RequireAuth(rt.Auth.UpdateProfile))
	mux.HandleFunc("DELETE /api/account", m.RequireAuth(rt.Auth.DeleteAccount))

	// Children and reward settings
	mux.HandleFunc("GET /api/dashboard", m.RequireAuth(rt.Children.Dashboard))
	mux.HandleFunc("GET /api/children", m.RequireAuth(rt.Children.ListChildren))
	mux.HandleFunc("POST /api/children", m.RequireAuth(rt.Children.CreateChild))
	mux.HandleFunc("GET /api/children/{id}", m.RequireAuth(rt.Children.GetChild))
	mux.HandleFunc("PUT /api/children/{id}", m.RequireAuth(rt.Children.UpdateChild))
	mux.HandleFunc("DELETE /api/children/{id}", m.RequireAuth(rt.Children.DeleteChild))
	mux.HandleFunc("GET /api/children/{id}/reward-settings", m.RequireAuth(rt.Children.GetRewardSettings))
	mux.HandleFunc("PUT /api/children/{id}/reward-settings", m.RequireAuth(rt.Children.UpdateRewardSettings))
	mux.HandleFunc("GET /api/children/{id}/summary", m.RequireAuth(rt.Children.Summary))
	mux.HandleFunc("GET /api/children/{id}/achievements", m.RequireAuth(rt.Children.Achievements))

	// Books
	mux.HandleFunc("GET /api/children/{id}/books", m.RequireAuth(rt.Books.ListChildBooks))
	mux.HandleFunc("POST /api/children/{id}/books", m.RequireAuth(rt.Books.SubmitBook))
	mux.HandleFunc("GET /api/books/pending", m.RequireAuth(rt.Books.ListPending))
	mux.HandleFunc("GET /api/books/{id}", m.RequireAuth(rt.Books.GetBook))
	mux.HandleFunc("GET /api/books/{id}/verification-prompt", m.RequireAuth(rt.Books.GetVerificationPrompt))
	mux.HandleFunc("POST /api/books/{id}/approve", m.RequireAuth(rt.Books.ApproveBook))
	mux.HandleFunc("POST /api/books/{id}/reject", m.RequireAuth(rt.Books.RejectBook))

	// Prizes
	mux.HandleFunc("GET /api/prizes", m.RequireAuth(rt.Prizes.ListPrizes))
	mux.HandleFunc("POST /api/prizes", m.RequireAuth(rt.Prizes.CreatePrize))
	mux.HandleFunc("PUT /api/prizes/{id}", m.RequireAuth(rt.Prizes.UpdatePrize))
	mux.HandleFunc("DELETE /api/prizes/{id}", m.RequireAuth(rt.Prizes.DeletePrize))
	mux.HandleFunc("POST /api/prizes/{id}/toggle", m.RequireAuth(rt.Prizes.ToggleRedeemed))

	return Logging(mux)
}
