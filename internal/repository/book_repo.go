package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
)

// BookRepository handles database operations for book submissions
type BookRepository struct {
	db database.DBTX
}

// NewBookRepository creates a new book repository
func NewBookRepository(db database.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

// BookCounts summarises a child's submissions by status
type BookCounts struct {
	Total    int
	Approved int
	Pending  int
	Rejected int
}

const bookColumns = `b.id, b.child_id, b.title, b.author, b.summary,
	COALESCE(b.cover_url, ''), COALESCE(b.reading_level, ''), COALESCE(b.interest_level, ''),
	b.status, b.submitted_at, b.approved_at, b.created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row scanner, extra ...interface{}) (*models.Book, error) {
	book := &models.Book{}
	var status string
	var approvedAt sql.NullTime
	dest := []interface{}{
		&book.ID,
		&book.ChildID,
		&book.Title,
		&book.Author,
		&book.Summary,
		&book.CoverURL,
		&book.ReadingLevel,
		&book.InterestLevel,
		&status,
		&book.SubmittedAt,
		&approvedAt,
		&book.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	book.Status = models.BookStatus(status)
	if approvedAt.Valid {
		t := approvedAt.Time
		book.ApprovedAt = &t
	}
	return book, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateBook stores a new pending submission and sets its ID
func (r *BookRepository) CreateBook(book *models.Book) error {
	query := `
		INSERT INTO books (child_id, title, author, summary, cover_url, reading_level, interest_level, status, submitted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if book.SubmittedAt.IsZero() {
		book.SubmittedAt = now
	}
	if book.Status == "" {
		book.Status = models.BookPending
	}
	id, err := r.db.ExecReturningID(query,
		book.ChildID,
		book.Title,
		book.Author,
		book.Summary,
		nullString(book.CoverURL),
		nullString(book.ReadingLevel),
		nullString(book.InterestLevel),
		string(book.Status),
		book.SubmittedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	book.ID = id
	book.CreatedAt = now
	return nil
}

// GetBookByID retrieves a book by ID
func (r *BookRepository) GetBookByID(bookID int64) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = ?`
	book, err := scanBook(r.db.QueryRow(query, bookID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// ListByChild retrieves a child's books, most recently submitted first.
// An empty status returns every book.
func (r *BookRepository) ListByChild(childID int64, status models.BookStatus) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.child_id = ?`
	args := []interface{}{childID}
	if status != "" {
		query += ` AND b.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY b.submitted_at DESC, b.id DESC`
	return r.list(query, args...)
}

// ListAll retrieves every book
func (r *BookRepository) ListAll() ([]models.Book, error) {
	return r.list(`SELECT ` + bookColumns + ` FROM books b ORDER BY b.id ASC`)
}

func (r *BookRepository) list(query string, args ...interface{}) ([]models.Book, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

// ListPendingByParent retrieves the review queue across all of a parent's children, oldest first
func (r *BookRepository) ListPendingByParent(parentID int64) ([]models.BookWithChild, error) {
	query := `
		SELECT ` + bookColumns + `, ` + prefixed("c", childColumns) + `
		FROM books b
		JOIN children c ON c.id = b.child_id
		WHERE c.parent_id = ? AND b.status = ?
		ORDER BY b.submitted_at ASC, b.id ASC
	`
	rows, err := r.db.Query(query, parentID, string(models.BookPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending books: %w", err)
	}
	defer rows.Close()

	var pending []models.BookWithChild
	for rows.Next() {
		var c models.Child
		book, err := scanBook(rows, &c.ID, &c.ParentID, &c.Name, &c.GradeLevel, &c.AvatarColor, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending book: %w", err)
		}
		pending = append(pending, models.BookWithChild{Book: *book, Child: c})
	}
	return pending, rows.Err()
}

// UpdateStatus moves a book from one status to another. It reports false
// when the book was no longer in the expected status, which means a
// concurrent reviewer got there first.
func (r *BookRepository) UpdateStatus(bookID int64, from, to models.BookStatus, approvedAt *time.Time) (bool, error) {
	query := `UPDATE books SET status = ?, approved_at = ? WHERE id = ? AND status = ?`
	var approved sql.NullTime
	if approvedAt != nil {
		approved = sql.NullTime{Time: *approvedAt, Valid: true}
	}
	result, err := r.db.Exec(query, string(to), approved, bookID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update book status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return rows == 1, nil
}

// CountApproved counts a child's approved books
func (r *BookRepository) CountApproved(childID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM books WHERE child_id = ? AND status = ?`
	if err := r.db.QueryRow(query, childID, string(models.BookApproved)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count approved books: %w", err)
	}
	return n, nil
}

// CountByStatus counts a child's books grouped by status
func (r *BookRepository) CountByStatus(childID int64) (BookCounts, error) {
	var counts BookCounts
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM books WHERE child_id = ? GROUP BY status`, childID)
	if err != nil {
		return counts, fmt.Errorf("failed to count books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("failed to scan book count: %w", err)
		}
		switch models.BookStatus(status) {
		case models.BookApproved:
			counts.Approved = n
		case models.BookPending:
			counts.Pending = n
		case models.BookRejected:
			counts.Rejected = n
		}
		counts.Total += n
	}
	return counts, rows.Err()
}
