package models

import "time"

// Prize is a parent-maintained reward that can be redeemed manually.
// A nil ChildID makes the prize available to all of the parent's children.
type Prize struct {
	ID             int64     `json:"id"`
	ParentID       int64     `json:"parent_id"`
	ChildID        *int64    `json:"child_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PointsRequired int       `json:"points_required"`
	IsRedeemed     bool      `json:"is_redeemed"`
	CreatedAt      time.Time `json:"created_at"`
}
