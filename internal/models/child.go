package models

import "time"

// Child is a reader registered by a parent
type Child struct {
	ID          int64     `json:"id" yaml:"id"`
	ParentID    int64     `json:"parent_id" yaml:"parent_id"`
	Name        string    `json:"name" yaml:"name"`
	GradeLevel  int       `json:"grade_level" yaml:"grade_level"`
	AvatarColor string    `json:"avatar_color" yaml:"avatar_color"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// ChildWithStats combines a child with book counts and earnings
type ChildWithStats struct {
	Child
	TotalBooks    int           `json:"total_books" yaml:"total_books"`
	ApprovedBooks int           `json:"approved_books" yaml:"approved_books"`
	PendingBooks  int           `json:"pending_books" yaml:"pending_books"`
	TotalEarned   float64       `json:"total_earned" yaml:"total_earned"`
	RewardPolicy  *RewardPolicy `json:"reward_settings,omitempty" yaml:"reward_settings,omitempty"`
}
