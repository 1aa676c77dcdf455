package rewards

import (
	"errors"
	"testing"

	"bookbuddy/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.BookStatus
		to      models.BookStatus
		wantErr bool
	}{
		{name: "approve pending", from: models.BookPending, to: models.BookApproved},
		{name: "reject pending", from: models.BookPending, to: models.BookRejected},
		{name: "approve twice", from: models.BookApproved, to: models.BookApproved, wantErr: true},
		{name: "reject after approve", from: models.BookApproved, to: models.BookRejected, wantErr: true},
		{name: "approve after reject", from: models.BookRejected, to: models.BookApproved, wantErr: true},
		{name: "back to pending", from: models.BookApproved, to: models.BookPending, wantErr: true},
		{name: "pending to pending", from: models.BookPending, to: models.BookPending, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []models.BookStatus{models.BookPending, models.BookApproved, models.BookRejected} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("ValidStatus(archived) = true")
	}
}
