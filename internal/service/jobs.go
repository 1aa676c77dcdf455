package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// NewScheduler registers the background jobs: an hourly sweep of expired
// sessions and the achievement reconciliation on reconcileSpec
func NewScheduler(auth *AuthService, books *BookService, reconcileSpec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc("@hourly", func() { CleanupSessionsJob(auth) }); err != nil {
		return nil, fmt.Errorf("failed to add session cleanup job: %w", err)
	}
	if _, err := c.AddFunc(reconcileSpec, func() { ReconcileJob(books) }); err != nil {
		return nil, fmt.Errorf("failed to add reconcile job %q: %w", reconcileSpec, err)
	}
	return c, nil
}

// CleanupSessionsJob removes expired sessions
func CleanupSessionsJob(auth *AuthService) {
	n, err := auth.CleanupExpiredSessions()
	if err != nil {
		log.Printf("Error cleaning up sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Removed %d expired sessions", n)
	}
}

// ReconcileJob repairs missing achievement grants for every child
func ReconcileJob(books *BookService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	n, err := books.ReconcileAll(ctx)
	if err != nil {
		log.Printf("Error reconciling achievements: %v", err)
		return
	}
	log.Printf("Achievement reconciliation granted %d achievements", n)
}
