package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// ChildRepository handles database operations for children
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

const childColumns = `id, parent_id, name, grade_level, avatar_color, created_at, updated_at`

func scanChild(row scanner) (*models.Child, error) {
	child := &models.Child{}
	err := row.Scan(
		&child.ID,
		&child.ParentID,
		&child.Name,
		&child.GradeLevel,
		&child.AvatarColor,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return child, nil
}

// CreateChild creates a new child profile
func (r *ChildRepository) CreateChild(parentID int64, name string, gradeLevel int, avatarColor string) (*models.Child, error) {
	query := `
		INSERT INTO children (parent_id, name, grade_level, avatar_color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	id, err := r.db.ExecReturningID(query, parentID, name, gradeLevel, avatarColor, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &models.Child{
		ID:          id,
		ParentID:    parentID,
		Name:        name,
		GradeLevel:  gradeLevel,
		AvatarColor: avatarColor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetChildByID retrieves a child by ID
func (r *ChildRepository) GetChildByID(childID int64) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = ?`
	child, err := scanChild(r.db.QueryRow(query, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// ListByParent retrieves a parent's children, newest first
func (r *ChildRepository) ListByParent(parentID int64) ([]models.Child, error) {
	query := `
		SELECT ` + childColumns + `
		FROM children
		WHERE parent_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.list(query, parentID)
}

// ListAll retrieves every child across all parents
func (r *ChildRepository) ListAll() ([]models.Child, error) {
	return r.list(`SELECT ` + childColumns + ` FROM children ORDER BY id ASC`)
}

func (r *ChildRepository) list(query string, args ...interface{}) ([]models.Child, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UpdateChild updates a child's profile
func (r *ChildRepository) UpdateChild(childID int64, name string, gradeLevel int, avatarColor string) error {
	query := `
		UPDATE children
		SET name = ?, grade_level = ?, avatar_color = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, name, gradeLevel, avatarColor, time.Now(), childID); err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// DeleteChild removes a child and, by cascade, their books, policy and achievements
func (r *ChildRepository) DeleteChild(childID int64) error {
	if _, err := r.db.Exec("DELETE FROM children WHERE id = ?", childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}
