package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// PrizeRepository handles database operations for prizes
type PrizeRepository struct {
	db database.DBTX
}

// NewPrizeRepository creates a new prize repository
func NewPrizeRepository(db database.DBTX) *PrizeRepository {
	return &PrizeRepository{db: db}
}

const prizeColumns = `id, parent_id, child_id, name, description, points_required, is_redeemed, created_at`

func scanPrize(row scanner) (*models.Prize, error) {
	p := &models.Prize{}
	var childID sql.NullInt64
	if err := row.Scan(&p.ID, &p.ParentID, &childID, &p.Name, &p.Description, &p.PointsRequired, &p.IsRedeemed, &p.CreatedAt); err != nil {
		return nil, err
	}
	if childID.Valid {
		id := childID.Int64
		p.ChildID = &id
	}
	return p, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// CreatePrize stores a new prize and sets its ID
func (r *PrizeRepository) CreatePrize(p *models.Prize) error {
	query := `
		INSERT INTO prizes (parent_id, child_id, name, description, points_required, is_redeemed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	id, err := r.db.ExecReturningID(query, p.ParentID, nullInt64(p.ChildID), p.Name, p.Description, p.PointsRequired, p.IsRedeemed, now)
	if err != nil {
		return fmt.Errorf("failed to create prize: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// GetPrizeByID retrieves a prize by ID
func (r *PrizeRepository) GetPrizeByID(prizeID int64) (*models.Prize, error) {
	p, err := scanPrize(r.db.QueryRow(`SELECT `+prizeColumns+` FROM prizes WHERE id = ?`, prizeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	return p, nil
}

// ListByParent retrieves a parent's prizes, newest first
func (r *PrizeRepository) ListByParent(parentID int64) ([]models.Prize, error) {
	return r.list(`SELECT `+prizeColumns+` FROM prizes WHERE parent_id = ? ORDER BY created_at DESC, id DESC`, parentID)
}

// ListAll retrieves every prize
func (r *PrizeRepository) ListAll() ([]models.Prize, error) {
	return r.list(`SELECT ` + prizeColumns + ` FROM prizes ORDER BY id ASC`)
}

func (r *PrizeRepository) list(query string, args ...interface{}) ([]models.Prize, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prizes: %w", err)
	}
	defer rows.Close()

	var prizes []models.Prize
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, *p)
	}
	return prizes, rows.Err()
}

// UpdatePrize saves the editable fields of a prize
func (r *PrizeRepository) UpdatePrize(p *models.Prize) error {
	query := `
		UPDATE prizes
		SET child_id = ?, name = ?, description = ?, points_required = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, nullInt64(p.ChildID), p.Name, p.Description, p.PointsRequired, p.ID); err != nil {
		return fmt.Errorf("failed to update prize: %w", err)
	}
	return nil
}

// SetRedeemed marks a prize redeemed or available again
func (r *PrizeRepository) SetRedeemed(prizeID int64, redeemed bool) error {
	if _, err := r.db.Exec(`UPDATE prizes SET is_redeemed = ? WHERE id = ?`, redeemed, prizeID); err != nil {
		return fmt.Errorf("failed to update prize redemption: %w", err)
	}
	return nil
}

// DeletePrize removes a prize
func (r *PrizeRepository) DeletePrize(prizeID int64) error {
	if _, err := r.db.Exec("DELETE FROM prizes WHERE id = ?", prizeID); err != nil {
		return fmt.Errorf("failed to delete prize: %w", err)
	}
	return nil
}
