package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bookbuddy/internal/bookinfo"
	"bookbuddy/internal/database"
	"bookbuddy/internal/lock"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/security"
	"bookbuddy/migrations"
)

type fakeLookup struct {
	info  bookinfo.Info
	err   error
	delay time.Duration
}

func (f *fakeLookup) Lookup(ctx context.Context, title, author string) (bookinfo.Info, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return bookinfo.Info{}, ctx.Err()
		}
	}
	return f.info, f.err
}

type sentEmail struct {
	kind string
	to   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *fakeNotifier) IsEnabled() bool { return true }

func (n *fakeNotifier) record(kind, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{kind: kind, to: to})
	return nil
}

func (n *fakeNotifier) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	return n.record("welcome", toEmail)
}

func (n *fakeNotifier) SendBookSubmittedEmail(ctx context.Context, toEmail, toName, childName, title, author string) error {
	return n.record("submitted", toEmail)
}

func (n *fakeNotifier) SendAccountDeletedEmail(ctx context.Context, toEmail, toName string) error {
	return n.record("deleted", toEmail)
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.sent {
		out = append(out, e.kind)
	}
	return out
}

type testEnv struct {
	db       *database.DB
	auth     *AuthService
	children *ChildService
	books    *BookService
	prizes   *PrizeService
	lookup   *fakeLookup
	email    *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(migrations.FS); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	lookup := &fakeLookup{}
	email := &fakeNotifier{}
	return &testEnv{
		db:       db,
		auth:     NewAuthService(repository.NewParentRepository(db), security.NewTokenIssuer("test-secret"), email, time.Hour),
		children: NewChildService(db),
		books:    NewBookService(db, lookup, lock.NewLocal(), email, 50*time.Millisecond),
		prizes:   NewPrizeService(db),
		lookup:   lookup,
		email:    email,
	}
}

func (e *testEnv) parent(t *testing.T, email string) *models.Parent {
	t.Helper()
	p, err := e.auth.Register(context.Background(), email, "password123", "Pat Parent")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return p
}

func (e *testEnv) child(t *testing.T, parentID int64) *models.Child {
	t.Helper()
	c, err := e.children.CreateChild(parentID, ChildInput{Name: "Robin", Grade: "3"})
	if err != nil {
		t.Fatalf("CreateChild() error = %v", err)
	}
	return c
}

func (e *testEnv) submit(t *testing.T, parentID, childID int64, title string) *models.Book {
	t.Helper()
	b, err := e.books.Submit(context.Background(), parentID, childID, SubmitInput{Title: title, Author: "Author", Summary: "It was good."})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return b
}
