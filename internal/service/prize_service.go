package service

import (
	"strings"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/validation"
)

// PrizeInput carries the editable fields of a prize
type PrizeInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsRequired int    `json:"points_required"`
	ChildID        *int64 `json:"child_id,omitempty"`
}

// PrizeService manages the parent's prize list. Prizes are informational
// and redeemed by hand; they are not deducted from earnings.
type PrizeService struct {
	prizeRepo *repository.PrizeRepository
	childRepo *repository.ChildRepository
}

// NewPrizeService creates a new prize service
func NewPrizeService(db *database.DB) *PrizeService {
	return &PrizeService{
		prizeRepo: repository.NewPrizeRepository(db),
		childRepo: repository.NewChildRepository(db),
	}
}

func (s *PrizeService) validate(parentID int64, in *PrizeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateRequired("name", in.Name); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength("name", in.Name, 100); err != nil {
		return err
	}
	if in.PointsRequired < 0 {
		return validation.ValidationError{Field: "points_required", Message: "points required must not be negative"}
	}
	if in.ChildID != nil {
		if _, err := ownedChild(s.childRepo, parentID, *in.ChildID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PrizeService) ownedPrize(parentID, prizeID int64) (*models.Prize, error) {
	prize, err := s.prizeRepo.GetPrizeByID(prizeID)
	if err != nil {
		return nil, unavailable("get prize", err)
	}
	if prize == nil {
		return nil, ErrPrizeNotFound
	}
	if prize.ParentID != parentID {
		return nil, ErrNotAuthorized
	}
	return prize, nil
}

// List returns the parent's prizes, newest first
func (s *PrizeService) List(parentID int64) ([]models.Prize, error) {
	prizes, err := s.prizeRepo.ListByParent(parentID)
	if err != nil {
		return nil, unavailable("list prizes", err)
	}
	return prizes, nil
}

// Create adds a prize
func (s *PrizeService) Create(parentID int64, in PrizeInput) (*models.Prize, error) {
	if err := s.validate(parentID, &in); err != nil {
		return nil, err
	}
	prize := &models.Prize{
		ParentID:       parentID,
		ChildID:        in.ChildID,
		Name:           in.Name,
		Description:    in.Description,
		PointsRequired: in.PointsRequired,
	}
	if err := s.prizeRepo.CreatePrize(prize); err != nil {
		return nil, unavailable("create prize", err)
	}
	return prize, nil
}

// Update edits a prize
func (s *PrizeService) Update(parentID, prizeID int64, in PrizeInput) (*models.Prize, error) {
	prize, err := s.ownedPrize(parentID, prizeID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(parentID, &in); err != nil {
		return nil, err
	}
	prize.ChildID = in.ChildID
	prize.Name = in.Name
	prize.Description = in.Description
	prize.PointsRequired = in.PointsRequired
	if err := s.prizeRepo.UpdatePrize(prize); err != nil {
		return nil, unavailable("update prize", err)
	}
	return prize, nil
}

// Delete removes a prize
func (s *PrizeService) Delete(parentID, prizeID int64) error {
	if _, err := s.ownedPrize(parentID, prizeID); err != nil {
		return err
	}
	if err := s.prizeRepo.DeletePrize(prizeID); err != nil {
		return unavailable("delete prize", err)
	}
	return nil
}

// ToggleRedeemed flips the redeemed flag
func (s *PrizeService) ToggleRedeemed(parentID, prizeID int64) (*models.Prize, error) {
	prize, err := s.ownedPrize(parentID, prizeID)
	if err != nil {
		return nil, err
	}
	prize.IsRedeemed = !prize.IsRedeemed
	if err := s.prizeRepo.SetRedeemed(prizeID, prize.IsRedeemed); err != nil {
		return nil, unavailable("update prize", err)
	}
	return prize, nil
}
