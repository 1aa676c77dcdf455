package repository

import (
	"fmt"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// AchievementRepository stores granted milestone badges
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Grant inserts an achievement unless the child already holds that type.
// It reports whether a new row was written and sets a.ID when it was.
func (r *AchievementRepository) Grant(a *models.Achievement) (bool, error) {
	query := r.db.GetDialect().InsertAchievementQuery()
	result, err := r.db.Exec(query, a.ChildID, a.AchievementType, a.Title, a.Description, a.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read grant result: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	// insert-or-ignore has no portable RETURNING, so read the key back
	err = r.db.QueryRow("SELECT id FROM achievements WHERE child_id = ? AND achievement_type = ?",
		a.ChildID, a.AchievementType).Scan(&a.ID)
	if err != nil {
		return true, fmt.Errorf("failed to read granted achievement id: %w", err)
	}
	return true, nil
}

// ListByChild retrieves a child's achievements in the order they were earned
func (r *AchievementRepository) ListByChild(childID int64) ([]models.Achievement, error) {
	query := `
		SELECT id, child_id, achievement_type, title, description, earned_at
		FROM achievements
		WHERE child_id = ?
		ORDER BY earned_at ASC, id ASC
	`
	return r.list(query, childID)
}

// ListAll retrieves every achievement
func (r *AchievementRepository) ListAll() ([]models.Achievement, error) {
	return r.list(`SELECT id, child_id, achievement_type, title, description, earned_at FROM achievements ORDER BY id ASC`)
}

func (r *AchievementRepository) list(query string, args ...interface{}) ([]models.Achievement, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.ChildID, &a.AchievementType, &a.Title, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// GrantedTypes returns the set of achievement types the child already holds
func (r *AchievementRepository) GrantedTypes(childID int64) (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT achievement_type FROM achievements WHERE child_id = ?`, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query granted achievements: %w", err)
	}
	defer rows.Close()

	granted := make(map[string]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan achievement type: %w", err)
		}
		granted[t] = true
	}
	return granted, rows.Err()
}
