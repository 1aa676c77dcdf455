package repository

import (
	"database/sql"
	"fmt"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// PolicyRepository handles the per-child reward policy rows
type PolicyRepository struct {
	db database.DBTX
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db database.DBTX) *PolicyRepository {
	return &PolicyRepository{db: db}
}

const policyColumns = `id, child_id, reward_type, amount_per_book, payout_threshold, created_at, updated_at`

func scanPolicy(row scanner) (*models.RewardPolicy, error) {
	p := &models.RewardPolicy{}
	if err := row.Scan(&p.ID, &p.ChildID, &p.RewardType, &p.AmountPerBook, &p.PayoutThreshold, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByChildID returns the stored policy, or nil if the child has none
func (r *PolicyRepository) GetByChildID(childID int64) (*models.RewardPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM reward_policies WHERE child_id = ?`
	p, err := scanPolicy(r.db.QueryRow(query, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward policy: %w", err)
	}
	return p, nil
}

// Upsert replaces the child's policy in place
func (r *PolicyRepository) Upsert(childID int64, rewardType string, amountPerBook, payoutThreshold float64) error {
	query := r.db.GetDialect().UpsertRewardPolicyQuery()
	if _, err := r.db.Exec(query, childID, rewardType, amountPerBook, payoutThreshold); err != nil {
		return fmt.Errorf("failed to save reward policy: %w", err)
	}
	return nil
}

// ListAll retrieves every stored policy
func (r *PolicyRepository) ListAll() ([]models.RewardPolicy, error) {
	rows, err := r.db.Query(`SELECT ` + policyColumns + ` FROM reward_policies ORDER BY child_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reward policies: %w", err)
	}
	defer rows.Close()

	var policies []models.RewardPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward policy: %w", err)
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}
