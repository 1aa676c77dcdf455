package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// ParentRepository handles database operations for parents and sessions
type ParentRepository struct {
	db database.DBTX
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db database.DBTX) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = `id, email, password_hash, full_name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

func scanParent(row scanner) (*models.Parent, error) {
	parent := &models.Parent{}
	err := row.Scan(
		&parent.ID,
		&parent.Email,
		&parent.PasswordHash,
		&parent.FullName,
		&parent.OAuthProvider,
		&parent.OAuthSubject,
		&parent.CreatedAt,
		&parent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// CreateParent inserts a new password-based parent account
func (r *ParentRepository) CreateParent(email, passwordHash, fullName string) (*models.Parent, error) {
	query := `
		INSERT INTO parents (email, password_hash, full_name)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, passwordHash, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	now := time.Now()
	return &models.Parent{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CreateOAuthParent inserts a parent that signs in through an OAuth provider
func (r *ParentRepository) CreateOAuthParent(email, fullName, provider, subject string) (*models.Parent, error) {
	query := `
		INSERT INTO parents (email, password_hash, full_name, oauth_provider, oauth_subject)
		VALUES (?, '', ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, fullName, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth parent: %w", err)
	}

	now := time.Now()
	return &models.Parent{
		ID:            id,
		Email:         email,
		FullName:      fullName,
		OAuthProvider: provider,
		OAuthSubject:  subject,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetParentByEmail retrieves a parent by email address
func (r *ParentRepository) GetParentByEmail(email string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE email = ?`
	parent, err := scanParent(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(id int64) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE id = ?`
	parent, err := scanParent(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

// GetParentByOAuth retrieves a parent by OAuth provider and subject
func (r *ParentRepository) GetParentByOAuth(provider, subject string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE oauth_provider = ? AND oauth_subject = ?`
	parent, err := scanParent(r.db.QueryRow(query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent by oauth: %w", err)
	}
	return parent, nil
}

// LinkOAuthProvider links an existing parent to an OAuth provider
func (r *ParentRepository) LinkOAuthProvider(parentID int64, provider, subject string) error {
	query := `
		UPDATE parents
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, parentID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}

// UpdateProfile changes the parent's display name
func (r *ParentRepository) UpdateProfile(parentID int64, fullName string) error {
	query := `UPDATE parents SET full_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, fullName, parentID); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// DeleteParent removes a parent; children, books, policies, achievements,
// prizes and sessions go with it through ON DELETE CASCADE
func (r *ParentRepository) DeleteParent(parentID int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM parents WHERE id = ?", parentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete parent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}

// ListParents retrieves every parent, oldest first
func (r *ParentRepository) ListParents() ([]models.Parent, error) {
	rows, err := r.db.Query(`SELECT ` + parentColumns + ` FROM parents ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, *parent)
	}
	return parents, rows.Err()
}

// CreateSession creates a new session for a parent
func (r *ParentRepository) CreateSession(sessionID string, parentID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, parent_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, sessionID, parentID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		ParentID:  parentID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *ParentRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `
		SELECT id, parent_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.ParentID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *ParentRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many went
func (r *ParentRepository) DeleteExpiredSessions() (int64, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
