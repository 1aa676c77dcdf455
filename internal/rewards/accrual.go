package rewards

import (
	"fmt"
	"math"

	"bookbuddy/internal/models"
)

// Accrual is the derived earnings state for a number of approved books
type Accrual struct {
	ApprovedBooks int     `json:"approved_books"`
	TotalEarned   float64 `json:"total_earned"`
	// Ratio is TotalEarned/threshold, left unclamped so overshoot is visible
	Ratio   float64 `json:"ratio"`
	HasGoal bool    `json:"has_goal"`
}

// ComputeAccrual derives earnings from the approved book count.
// A zero threshold means there is no goal; the ratio stays 0 and the goal
// is treated as complete.
func ComputeAccrual(approvedCount int, policy Policy) Accrual {
	if approvedCount < 0 {
		approvedCount = 0
	}
	a := Accrual{
		ApprovedBooks: approvedCount,
		TotalEarned:   float64(approvedCount) * policy.AmountPerBook,
		HasGoal:       policy.PayoutThreshold > 0,
	}
	if a.HasGoal {
		a.Ratio = a.TotalEarned / policy.PayoutThreshold
	}
	return a
}

// ClampedRatio is the progress ratio limited to [0, 1]
func (a Accrual) ClampedRatio() float64 {
	if !a.HasGoal {
		return 1
	}
	return math.Max(0, math.Min(1, a.Ratio))
}

// Percent is the clamped progress as a percentage
func (a Accrual) Percent() float64 {
	return a.ClampedRatio() * 100
}

// GoalReached reports whether the payout threshold has been met
func (a Accrual) GoalReached() bool {
	return !a.HasGoal || a.Ratio >= 1
}

// FormatAmount renders an amount in the policy's unit, e.g. "$3.00" or "3 pts"
func FormatAmount(unit string, amount float64) string {
	if unit == models.RewardPoints {
		if amount == math.Trunc(amount) {
			return fmt.Sprintf("%d pts", int64(amount))
		}
		return fmt.Sprintf("%.1f pts", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}
