package service

import (
	"errors"
	"testing"

	"bookbuddy/internal/validation"
)

func TestPrizeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)

	prize, err := env.prizes.Create(parent.ID, PrizeInput{Name: " Movie night ", Description: "Pick the film", PointsRequired: 30, ChildID: &child.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if prize.Name != "Movie night" || prize.ChildID == nil || *prize.ChildID != child.ID {
		t.Errorf("Create() = %+v", prize)
	}

	toggled, err := env.prizes.ToggleRedeemed(parent.ID, prize.ID)
	if err != nil || !toggled.IsRedeemed {
		t.Fatalf("ToggleRedeemed() = %+v, %v", toggled, err)
	}
	toggled, _ = env.prizes.ToggleRedeemed(parent.ID, prize.ID)
	if toggled.IsRedeemed {
		t.Error("second toggle should make the prize available again")
	}

	updated, err := env.prizes.Update(parent.ID, prize.ID, PrizeInput{Name: "Cinema trip", PointsRequired: 60})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Cinema trip" || updated.ChildID != nil {
		t.Errorf("Update() = %+v", updated)
	}

	if err := env.prizes.Delete(parent.ID, prize.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	prizes, _ := env.prizes.List(parent.ID)
	if len(prizes) != 0 {
		t.Errorf("List() after delete = %+v", prizes)
	}
}

func TestPrizeValidation(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	other := env.parent(t, "other@example.com")
	otherChild := env.child(t, other.ID)

	tests := []struct {
		name      string
		input     PrizeInput
		wantField string
		wantErr   error
	}{
		{name: "missing name", input: PrizeInput{Name: ""}, wantField: "name"},
		{name: "negative points", input: PrizeInput{Name: "Toy", PointsRequired: -5}, wantField: "points_required"},
		{name: "another family's child", input: PrizeInput{Name: "Toy", ChildID: &otherChild.ID}, wantErr: ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.prizes.Create(parent.ID, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var vErr validation.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.wantField {
				t.Errorf("Create() error = %v, want ValidationError on %s", err, tt.wantField)
			}
		})
	}
}

func TestPrizeOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.parent(t, "owner@example.com")
	other := env.parent(t, "other@example.com")
	prize, _ := env.prizes.Create(owner.ID, PrizeInput{Name: "Toy"})

	if _, err := env.prizes.ToggleRedeemed(other.ID, prize.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("ToggleRedeemed() error = %v, want ErrNotAuthorized", err)
	}
	if err := env.prizes.Delete(owner.ID, 9999); !errors.Is(err, ErrPrizeNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrPrizeNotFound", err)
	}
}
