package models

import "time"

// BookStatus is the review state of a submitted book
type BookStatus string

const (
	BookPending  BookStatus = "pending"
	BookApproved BookStatus = "approved"
	BookRejected BookStatus = "rejected"
)

// Book is a child's reading submission awaiting or past parental review
type Book struct {
	ID            int64      `json:"id"`
	ChildID       int64      `json:"child_id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Summary       string     `json:"summary"`
	CoverURL      string     `json:"cover_url,omitempty"`
	ReadingLevel  string     `json:"reading_level,omitempty"`
	InterestLevel string     `json:"interest_level,omitempty"`
	Status        BookStatus `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// BookWithChild pairs a pending book with the child who read it
type BookWithChild struct {
	Book
	Child Child `json:"child"`
}
