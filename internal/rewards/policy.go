// Package rewards holds the pure reward engine: per-child policy defaults,
// the accrual calculator, the milestone catalog and the review state machine.
// Nothing here touches storage.
package rewards

import (
	"bookbuddy/internal/models"
	"bookbuddy/internal/validation"
)

// Defaults applied when a child has no stored policy
const (
	DefaultUnit            = models.RewardMoney
	DefaultAmountPerBook   = 1.00
	DefaultPayoutThreshold = 10.00
)

// Policy is the effective reward configuration for one child
type Policy struct {
	Unit            string  `json:"reward_type"`
	AmountPerBook   float64 `json:"amount_per_book"`
	PayoutThreshold float64 `json:"payout_threshold"`
}

// DefaultPolicy returns the policy used for children without one
func DefaultPolicy() Policy {
	return Policy{
		Unit:            DefaultUnit,
		AmountPerBook:   DefaultAmountPerBook,
		PayoutThreshold: DefaultPayoutThreshold,
	}
}

// PolicyFromModel converts a stored policy, falling back to the defaults when nil
func PolicyFromModel(p *models.RewardPolicy) Policy {
	if p == nil {
		return DefaultPolicy()
	}
	return Policy{
		Unit:            p.RewardType,
		AmountPerBook:   p.AmountPerBook,
		PayoutThreshold: p.PayoutThreshold,
	}
}

// Validate checks the unit and that neither amount is negative
func (p Policy) Validate() error {
	if p.Unit != models.RewardMoney && p.Unit != models.RewardPoints {
		return validation.ValidationError{Field: "reward_type", Message: "reward type must be money or points"}
	}
	if err := validation.ValidateNonNegative("amount_per_book", p.AmountPerBook); err != nil {
		return err
	}
	return validation.ValidateNonNegative("payout_threshold", p.PayoutThreshold)
}
