package estimate

import "github.com/okian/relocator/internal/domain/model"

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithTierCosts replaces the base relocation cost per move tier. The table
// must price every tier, strictly increasing from minimal to full;
// otherwise it is ignored.
func WithTierCosts(costs map[model.MoveTier]float64) Option {
	return func(e *Estimator) {
		prev := 0.0
		for _, tier := range model.MoveTiers() {
			c, ok := costs[tier]
			if !ok || c <= prev {
				return
			}
			prev = c
		}
		e.tierCosts = make(map[model.MoveTier]float64, len(costs))
		for _, tier := range model.MoveTiers() {
			e.tierCosts[tier] = costs[tier]
		}
	}
}

// WithDefaultTier sets the tier used when the requested one is unknown.
func WithDefaultTier(tier model.MoveTier) Option {
	return func(e *Estimator) {
		if _, ok := e.tierCosts[tier]; ok {
			e.defaultTier = tier
		}
	}
}

// WithHouseholdSurcharge sets the share of the base move cost added per
// additional household member.
func WithHouseholdSurcharge(rate float64) Option {
	return func(e *Estimator) {
		if rate >= 0 {
			e.householdSurcharge = rate
		}
	}
}

// WithPerPersonAllowance sets the monthly living allowance per person.
func WithPerPersonAllowance(amount float64) Option {
	return func(e *Estimator) {
		if amount >= 0 {
			e.perPersonAllowance = amount
		}
	}
}

// WithCostOfLivingFactor sets the share of origin housing cost counted as
// non-housing savings each month.
func WithCostOfLivingFactor(factor float64) Option {
	return func(e *Estimator) {
		if factor >= 0 {
			e.costOfLivingFactor = factor
		}
	}
}

// WithBreakEvenFallback sets the monthly divisor used when relocating does
// not reduce housing cost.
func WithBreakEvenFallback(divisor float64) Option {
	return func(e *Estimator) {
		if divisor > 0 {
			e.breakEvenFallback = divisor
		}
	}
}
