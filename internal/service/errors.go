package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation's precondition on the
	// current state does not hold, such as approving a non-pending book
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable wraps persistence and collaborator failures
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotAuthorized is returned when a parent touches another family's data
	ErrNotAuthorized = errors.New("not authorized")

	ErrChildNotFound  = errors.New("child not found")
	ErrBookNotFound   = errors.New("book not found")
	ErrPrizeNotFound  = errors.New("prize not found")
	ErrParentNotFound = errors.New("parent not found")
)

// unavailable marks err as a collaborator failure while keeping the cause
func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrUnavailable, err)
}
