package rewards

import (
	"errors"
	"fmt"

	"bookbuddy/internal/models"
)

// ErrInvalidTransition is returned for any review move other than out of pending
var ErrInvalidTransition = errors.New("invalid status transition")

// Transition checks a review status change. Approved and rejected are terminal.
func Transition(from, to models.BookStatus) error {
	if from == models.BookPending && (to == models.BookApproved || to == models.BookRejected) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ValidStatus reports whether s is a known review status
func ValidStatus(s models.BookStatus) bool {
	switch s {
	case models.BookPending, models.BookApproved, models.BookRejected:
		return true
	}
	return false
}
