package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookbuddy/internal/bookinfo"
	"bookbuddy/internal/database"
	"bookbuddy/internal/lock"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/security"
	"bookbuddy/internal/service"
	"bookbuddy/migrations"
)

type stubLookup struct{}

func (stubLookup) Lookup(ctx context.Context, title, author string) (bookinfo.Info, error) {
	return bookinfo.Info{CoverURL: "https://covers.example.com/1.jpg", ReadingLevel: "Grade 3-5"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(migrations.FS); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	email, _ := service.NewEmailService("us-east-1", "", "", "", false)
	authService := service.NewAuthService(repository.NewParentRepository(db), security.NewTokenIssuer("test-secret"), email, time.Hour)
	childService := service.NewChildService(db)
	bookService := service.NewBookService(db, stubLookup{}, lock.NewLocal(), email, time.Second)
	prizeService := service.NewPrizeService(db)

	router := &Router{
		Middleware: NewMiddleware(authService, security.NewRateLimiter(100, time.Minute)),
		Auth:       NewAuthHandler(authService, nil, ""),
		Children:   NewChildHandler(childService, bookService),
		Books:      NewBookHandler(bookService),
		Prizes:     NewPrizeHandler(prizeService),
	}
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func registerParent(t *testing.T, server *httptest.Server, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, server: server}
	var tok TokenResponse
	status := c.do("POST", "/auth/register", map[string]string{
		"email": email, "password": "password123", "full_name": "Pat Parent",
	}, &tok)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	c.token = tok.Token
	return c
}

func TestAuthFlow(t *testing.T) {
	server := newTestServer(t)
	anon := &apiClient{t: t, server: server}

	if status := anon.do("GET", "/api/profile", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("profile without token = %d, want 401", status)
	}

	c := registerParent(t, server, "pat@example.com")

	if status := anon.do("POST", "/auth/register", map[string]string{
		"email": "PAT@example.com", "password": "password123", "full_name": "Dup",
	}, nil); status != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", status)
	}
	if status := anon.do("POST", "/auth/login", map[string]string{
		"email": "pat@example.com", "password": "wrong-password",
	}, nil); status != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", status)
	}

	var profile models.Parent
	if status := c.do("PATCH", "/api/profile", map[string]string{"full_name": "Pat P."}, &profile); status != http.StatusOK {
		t.Fatalf("update profile = %d", status)
	}
	if profile.FullName != "Pat P." {
		t.Errorf("FullName = %q", profile.FullName)
	}

	if status := c.do("POST", "/auth/logout", nil, nil); status != http.StatusNoContent {
		t.Fatalf("logout = %d", status)
	}
	if status := c.do("GET", "/api/profile", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("profile after logout = %d, want 401", status)
	}
}

func TestReadingRewardsFlow(t *testing.T) {
	server := newTestServer(t)
	c := registerParent(t, server, "pat@example.com")

	var child models.Child
	status := c.do("POST", "/api/children", map[string]interface{}{
		"name":        "Robin",
		"grade_level": "K",
		"reward_settings": map[string]interface{}{
			"reward_type": "money", "amount_per_book": 1.0, "payout_threshold": 10.0,
		},
	}, &child)
	if status != http.StatusCreated {
		t.Fatalf("create child = %d", status)
	}

	books := make([]models.Book, 3)
	for i := range books {
		status := c.do("POST", fmt.Sprintf("/api/children/%d/books", child.ID), service.SubmitInput{
			Title: fmt.Sprintf("Book %d", i+1), Author: "Author", Summary: "Loved it.",
		}, &books[i])
		if status != http.StatusCreated {
			t.Fatalf("submit book = %d", status)
		}
	}
	if books[0].Status != models.BookPending || books[0].CoverURL == "" {
		t.Errorf("submitted book = %+v", books[0])
	}

	var pending []models.BookWithChild
	c.do("GET", "/api/books/pending", nil, &pending)
	if len(pending) != 3 || pending[0].Child.Name != "Robin" {
		t.Errorf("pending queue = %+v", pending)
	}

	var result service.ApprovalResult
	for _, b := range books {
		if status := c.do("POST", fmt.Sprintf("/api/books/%d/approve", b.ID), nil, &result); status != http.StatusOK {
			t.Fatalf("approve = %d", status)
		}
	}
	if result.Accrual == nil || result.Accrual.TotalEarned != 3 {
		t.Errorf("accrual = %+v, want TotalEarned 3", result.Accrual)
	}

	if status := c.do("POST", fmt.Sprintf("/api/books/%d/reject", books[0].ID), nil, nil); status != http.StatusConflict {
		t.Errorf("reject approved book = %d, want 409", status)
	}

	var summary service.ChildSummary
	if status := c.do("GET", fmt.Sprintf("/api/children/%d/summary", child.ID), nil, &summary); status != http.StatusOK {
		t.Fatalf("summary = %d", status)
	}
	if summary.EarnedLabel != "$3.00" || math.Abs(summary.Progress-30) > 1e-9 || summary.GradeLabel != "K" {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Achievements) != 1 || summary.Achievements[0].AchievementType != "first_book" {
		t.Errorf("achievements = %+v", summary.Achievements)
	}

	var approved []models.Book
	c.do("GET", fmt.Sprintf("/api/children/%d/books?status=approved", child.ID), nil, &approved)
	if len(approved) != 3 {
		t.Errorf("approved books = %d, want 3", len(approved))
	}
	if status := c.do("GET", fmt.Sprintf("/api/children/%d/books?status=lost", child.ID), nil, nil); status != http.StatusBadRequest {
		t.Errorf("unknown status filter = %d, want 400", status)
	}
}

func TestRewardSettingsEndpoints(t *testing.T) {
	server := newTestServer(t)
	c := registerParent(t, server, "pat@example.com")

	var child models.Child
	c.do("POST", "/api/children", map[string]interface{}{"name": "Sky", "grade_level": 2}, &child)
	path := fmt.Sprintf("/api/children/%d/reward-settings", child.ID)

	var settings RewardSettingsResponse
	c.do("GET", path, nil, &settings)
	if !settings.IsDefault || settings.AmountPerBook != 1 || settings.PayoutThreshold != 10 {
		t.Errorf("default settings = %+v", settings)
	}

	status := c.do("PUT", path, map[string]interface{}{
		"reward_type": "points", "amount_per_book": 5, "payout_threshold": 100,
	}, &settings)
	if status != http.StatusOK || settings.Unit != "points" || settings.IsDefault {
		t.Errorf("PUT settings = %d %+v", status, settings)
	}

	if status := c.do("PUT", path, map[string]interface{}{
		"reward_type": "gold", "amount_per_book": 5, "payout_threshold": 100,
	}, nil); status != http.StatusBadRequest {
		t.Errorf("invalid unit = %d, want 400", status)
	}
}

func TestCrossFamilyAccessIsForbidden(t *testing.T) {
	server := newTestServer(t)
	owner := registerParent(t, server, "owner@example.com")
	other := registerParent(t, server, "other@example.com")

	var child models.Child
	owner.do("POST", "/api/children", map[string]interface{}{"name": "Robin", "grade_level": "3"}, &child)
	var book models.Book
	owner.do("POST", fmt.Sprintf("/api/children/%d/books", child.ID), service.SubmitInput{
		Title: "Holes", Author: "Louis Sachar", Summary: "Digging.",
	}, &book)

	if status := other.do("GET", fmt.Sprintf("/api/children/%d", child.ID), nil, nil); status != http.StatusForbidden {
		t.Errorf("other parent get child = %d, want 403", status)
	}
	if status := other.do("POST", fmt.Sprintf("/api/books/%d/approve", book.ID), nil, nil); status != http.StatusForbidden {
		t.Errorf("other parent approve = %d, want 403", status)
	}
	if status := owner.do("GET", "/api/children/9999", nil, nil); status != http.StatusNotFound {
		t.Errorf("missing child = %d, want 404", status)
	}
	if status := owner.do("GET", "/api/children/abc", nil, nil); status != http.StatusBadRequest {
		t.Errorf("non-numeric id = %d, want 400", status)
	}
}

func TestVerificationPromptEndpoint(t *testing.T) {
	server := newTestServer(t)
	owner := registerParent(t, server, "owner@example.com")
	other := registerParent(t, server, "other@example.com")

	var child models.Child
	owner.do("POST", "/api/children", map[string]interface{}{"name": "Robin", "grade_level": "3"}, &child)
	var book models.Book
	owner.do("POST", fmt.Sprintf("/api/children/%d/books", child.ID), service.SubmitInput{
		Title: "Holes", Author: "Louis Sachar", Summary: "Stanley digs holes at a camp.",
	}, &book)

	path := fmt.Sprintf("/api/books/%d/verification-prompt", book.ID)
	var resp VerificationPromptResponse
	if status := owner.do("GET", path, nil, &resp); status != http.StatusOK {
		t.Fatalf("verification prompt = %d", status)
	}
	for _, want := range []string{`Book Title: "Holes"`, "Author: Louis Sachar", "Reading Level: Grade 3-5", "Stanley digs holes at a camp."} {
		if !strings.Contains(resp.Prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, resp.Prompt)
		}
	}

	if status := other.do("GET", path, nil, nil); status != http.StatusForbidden {
		t.Errorf("other parent verification prompt = %d, want 403", status)
	}
	if status := owner.do("GET", "/api/books/9999/verification-prompt", nil, nil); status != http.StatusNotFound {
		t.Errorf("missing book verification prompt = %d, want 404", status)
	}
}

func TestPrizeEndpoints(t *testing.T) {
	server := newTestServer(t)
	c := registerParent(t, server, "pat@example.com")

	var prize models.Prize
	if status := c.do("POST", "/api/prizes", service.PrizeInput{Name: "Ice cream", PointsRequired: 20}, &prize); status != http.StatusCreated {
		t.Fatalf("create prize = %d", status)
	}
	if status := c.do("POST", "/api/prizes", service.PrizeInput{Name: "Bad", PointsRequired: -1}, nil); status != http.StatusBadRequest {
		t.Errorf("negative points = %d, want 400", status)
	}

	c.do("POST", fmt.Sprintf("/api/prizes/%d/toggle", prize.ID), nil, &prize)
	if !prize.IsRedeemed {
		t.Error("prize should be redeemed after toggle")
	}

	if status := c.do("DELETE", fmt.Sprintf("/api/prizes/%d", prize.ID), nil, nil); status != http.StatusNoContent {
		t.Errorf("delete prize = %d", status)
	}
	var prizes []models.Prize
	c.do("GET", "/api/prizes", nil, &prizes)
	if len(prizes) != 0 {
		t.Errorf("prizes after delete = %+v", prizes)
	}
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	server := newTestServer(t)
	c := registerParent(t, server, "pat@example.com")
	c.do("POST", "/api/children", map[string]interface{}{"name": "Robin", "grade_level": "3"}, nil)

	if status := c.do("DELETE", "/api/account", nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete account = %d", status)
	}
	if status := c.do("GET", "/api/children", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("token after account deletion = %d, want 401", status)
	}

	anon := &apiClient{t: t, server: server}
	if status := anon.do("POST", "/auth/login", map[string]string{
		"email": "pat@example.com", "password": "password123",
	}, nil); status != http.StatusUnauthorized {
		t.Errorf("login after deletion = %d, want 401", status)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	db, err := database.Initialize(filepath.Join(t.TempDir(), "limit.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(migrations.FS); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	authService := service.NewAuthService(repository.NewParentRepository(db), security.NewTokenIssuer("s"), nil, time.Hour)
	m := NewMiddleware(authService, security.NewRateLimiter(2, time.Minute))
	handler := m.RateLimit(NewAuthHandler(authService, nil, "").Login)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"x"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third login status = %d, want 429", last)
	}
}

func TestOAuthStartRequiresConfiguredProvider(t *testing.T) {
	h := NewAuthHandler(nil, map[string]OAuthProvider{"google": {Name: "google", Label: "Google"}}, "")

	req := httptest.NewRequest("GET", "/auth/google/start", nil)
	req.SetPathValue("provider", "google")
	rec := httptest.NewRecorder()
	h.StartOAuth(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unconfigured provider = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListOAuthProviders(rec, httptest.NewRequest("GET", "/auth/providers", nil))
	var views []OAuthProviderView
	json.Unmarshal(rec.Body.Bytes(), &views)
	if len(views) != 0 {
		t.Errorf("unconfigured providers should be hidden, got %+v", views)
	}
}
