package models

import "time"

// Reward units
const (
	RewardMoney  = "money"
	RewardPoints = "points"
)

// RewardPolicy is the per-child reward configuration
type RewardPolicy struct {
	ID              int64     `json:"id"`
	ChildID         int64     `json:"child_id"`
	RewardType      string    `json:"reward_type"`
	AmountPerBook   float64   `json:"amount_per_book"`
	PayoutThreshold float64   `json:"payout_threshold"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
