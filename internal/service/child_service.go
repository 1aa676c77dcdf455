package service

import (
	"fmt"
	"strings"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/rewards"
	"bookbuddy/internal/validation"
)

// ChildInput carries the editable fields of a child profile.
// Grade accepts "K" or 0-12; an empty AvatarColor picks one at random.
type ChildInput struct {
	Name        string          `json:"name"`
	Grade       string          `json:"grade_level"`
	AvatarColor string          `json:"avatar_color"`
	Policy      *rewards.Policy `json:"reward_settings,omitempty"`
}

// ChildService manages children and their reward policies
type ChildService struct {
	db         *database.DB
	childRepo  *repository.ChildRepository
	policyRepo *repository.PolicyRepository
	bookRepo   *repository.BookRepository
}

// NewChildService creates a new child service
func NewChildService(db *database.DB) *ChildService {
	return &ChildService{
		db:         db,
		childRepo:  repository.NewChildRepository(db),
		policyRepo: repository.NewPolicyRepository(db),
		bookRepo:   repository.NewBookRepository(db),
	}
}

// ownedChild loads a child and checks that parentID owns it
func ownedChild(repo *repository.ChildRepository, parentID, childID int64) (*models.Child, error) {
	child, err := repo.GetChildByID(childID)
	if err != nil {
		return nil, unavailable("get child", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if child.ParentID != parentID {
		return nil, ErrNotAuthorized
	}
	return child, nil
}

func normalizeChildInput(in ChildInput) (name string, grade int, color string, err error) {
	name = strings.TrimSpace(in.Name)
	if err = validation.ValidateRequired("name", name); err != nil {
		return
	}
	if err = validation.ValidateMaxLength("name", name, 100); err != nil {
		return
	}
	if grade, err = rewards.ParseGradeLevel(in.Grade); err != nil {
		return
	}
	color = strings.ToUpper(strings.TrimSpace(in.AvatarColor))
	if color == "" {
		color = rewards.RandomAvatarColor()
	} else if err = rewards.ValidateAvatarColor(color); err != nil {
		return
	}
	if in.Policy != nil {
		err = in.Policy.Validate()
	}
	return
}

// CreateChild adds a child and, when given, stores their reward policy
func (s *ChildService) CreateChild(parentID int64, in ChildInput) (*models.Child, error) {
	name, grade, color, err := normalizeChildInput(in)
	if err != nil {
		return nil, err
	}

	var child *models.Child
	err = s.db.WithTx(func(tx *database.Tx) error {
		var err error
		child, err = repository.NewChildRepository(tx).CreateChild(parentID, name, grade, color)
		if err != nil {
			return err
		}
		if in.Policy != nil {
			return repository.NewPolicyRepository(tx).Upsert(child.ID, in.Policy.Unit, in.Policy.AmountPerBook, in.Policy.PayoutThreshold)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("create child", err)
	}
	return child, nil
}

// GetChild returns one of the parent's children
func (s *ChildService) GetChild(parentID, childID int64) (*models.Child, error) {
	return ownedChild(s.childRepo, parentID, childID)
}

// ListChildren returns the parent's children, newest first
func (s *ChildService) ListChildren(parentID int64) ([]models.Child, error) {
	children, err := s.childRepo.ListByParent(parentID)
	if err != nil {
		return nil, unavailable("list children", err)
	}
	return children, nil
}

// UpdateChild edits a child's profile and, when given, their policy
func (s *ChildService) UpdateChild(parentID, childID int64, in ChildInput) (*models.Child, error) {
	existing, err := ownedChild(s.childRepo, parentID, childID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.AvatarColor) == "" {
		in.AvatarColor = existing.AvatarColor
	}
	name, grade, color, err := normalizeChildInput(in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(func(tx *database.Tx) error {
		if err := repository.NewChildRepository(tx).UpdateChild(childID, name, grade, color); err != nil {
			return err
		}
		if in.Policy != nil {
			return repository.NewPolicyRepository(tx).Upsert(childID, in.Policy.Unit, in.Policy.AmountPerBook, in.Policy.PayoutThreshold)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("update child", err)
	}
	return s.GetChild(parentID, childID)
}

// DeleteChild removes a child with all of their books, policy and achievements
func (s *ChildService) DeleteChild(parentID, childID int64) error {
	if _, err := ownedChild(s.childRepo, parentID, childID); err != nil {
		return err
	}
	if err := s.childRepo.DeleteChild(childID); err != nil {
		return unavailable("delete child", err)
	}
	return nil
}

// GetPolicy returns the stored policy, or nil when the child uses the defaults
func (s *ChildService) GetPolicy(parentID, childID int64) (*models.RewardPolicy, error) {
	if _, err := ownedChild(s.childRepo, parentID, childID); err != nil {
		return nil, err
	}
	policy, err := s.policyRepo.GetByChildID(childID)
	if err != nil {
		return nil, unavailable("get reward policy", err)
	}
	return policy, nil
}

// EffectivePolicy returns the stored policy or the defaults
func (s *ChildService) EffectivePolicy(parentID, childID int64) (rewards.Policy, error) {
	policy, err := s.GetPolicy(parentID, childID)
	if err != nil {
		return rewards.Policy{}, err
	}
	return rewards.PolicyFromModel(policy), nil
}

// SetPolicy validates and replaces a child's reward policy. Earnings are
// always derived from the current policy, so the change applies to every
// previously approved book.
func (s *ChildService) SetPolicy(parentID, childID int64, policy rewards.Policy) (*models.RewardPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if _, err := ownedChild(s.childRepo, parentID, childID); err != nil {
		return nil, err
	}
	if err := s.policyRepo.Upsert(childID, policy.Unit, policy.AmountPerBook, policy.PayoutThreshold); err != nil {
		return nil, unavailable("save reward policy", err)
	}
	stored, err := s.policyRepo.GetByChildID(childID)
	if err != nil {
		return nil, unavailable("get reward policy", err)
	}
	return stored, nil
}

// ListChildrenWithStats builds the dashboard view from fresh reads
func (s *ChildService) ListChildrenWithStats(parentID int64) ([]models.ChildWithStats, error) {
	children, err := s.ListChildren(parentID)
	if err != nil {
		return nil, err
	}

	stats := make([]models.ChildWithStats, 0, len(children))
	for _, child := range children {
		counts, err := s.bookRepo.CountByStatus(child.ID)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("count books for child %d", child.ID), err)
		}
		policy, err := s.policyRepo.GetByChildID(child.ID)
		if err != nil {
			return nil, unavailable("get reward policy", err)
		}
		accrual := rewards.ComputeAccrual(counts.Approved, rewards.PolicyFromModel(policy))

		stats = append(stats, models.ChildWithStats{
			Child:         child,
			TotalBooks:    counts.Total,
			ApprovedBooks: counts.Approved,
			PendingBooks:  counts.Pending,
			TotalEarned:   accrual.TotalEarned,
			RewardPolicy:  policy,
		})
	}
	return stats, nil
}
