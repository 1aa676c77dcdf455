package models

import "time"

// Achievement is a milestone badge granted to a child
type Achievement struct {
	ID              int64     `json:"id" yaml:"id"`
	ChildID         int64     `json:"child_id" yaml:"child_id"`
	AchievementType string    `json:"achievement_type" yaml:"achievement_type"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	EarnedAt        time.Time `json:"earned_at" yaml:"earned_at"`
}
