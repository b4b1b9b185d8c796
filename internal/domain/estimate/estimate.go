// Package estimate projects relocation costs for a household moving to a
// catalog region.
//
// The model is a fixed heuristic, not a market model: a tiered one-time move
// cost with a flat surcharge per extra household member, a per-person living
// allowance at the destination, and a cost-of-living bonus expressed as a
// share of origin rent. All money values are rounded only on output.
package estimate

import (
	"math"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/model"
)

// Default model constants.
const (
	defaultHouseholdSurcharge = 0.3
	defaultPerPersonAllowance = 400
	defaultCostOfLivingFactor = 0.32
	defaultBreakEvenFallback  = 200
	monthsPerYear             = 12
	maxBreakEvenMonths        = math.MaxInt32
)

// MaxHouseholdSize is the largest household the model accepts. Larger sizes
// are treated as malformed and fall back to one person.
const MaxHouseholdSize = 100

// DefaultTierCosts returns the base relocation cost of each tier.
func DefaultTierCosts() map[model.MoveTier]float64 {
	return map[model.MoveTier]float64{
		model.TierMinimal: 2000,
		model.TierPartial: 5000,
		model.TierFull:    10000,
	}
}

// Estimator computes CalculatorResults. It holds only constants and is safe
// for concurrent use.
type Estimator struct {
	tierCosts          map[model.MoveTier]float64
	defaultTier        model.MoveTier
	householdSurcharge float64
	perPersonAllowance float64
	costOfLivingFactor float64
	breakEvenFallback  float64
}

// New creates an Estimator with the default constants and applies opts.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		tierCosts:          DefaultTierCosts(),
		defaultTier:        model.TierPartial,
		householdSurcharge: defaultHouseholdSurcharge,
		perPersonAllowance: defaultPerPersonAllowance,
		costOfLivingFactor: defaultCostOfLivingFactor,
		breakEvenFallback:  defaultBreakEvenFallback,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TierCost returns the base cost of tier and whether the tier is known.
func (e *Estimator) TierCost(tier model.MoveTier) (float64, bool) {
	c, ok := e.tierCosts[tier]
	return c, ok
}

// Estimate projects the cost of moving per in, against regions in c.
// It never fails: out-of-domain fields are normalized first.
func (e *Estimator) Estimate(c *catalog.Catalog, in model.CalculatorInput) model.CalculatorResult {
	in = e.normalize(in)
	region, _ := c.Resolve(in.TargetRegionID)

	household := float64(in.HouseholdSize)
	totalMoveCost := e.tierCosts[in.MoveTier] * (1 + (household-1)*e.householdSurcharge)
	destinationBudget := region.BaseCost + household*e.perPersonAllowance
	monthlyDelta := in.OriginHousingCost - region.BaseCost
	annualDelta := monthlyDelta*monthsPerYear + in.OriginHousingCost*e.costOfLivingFactor*monthsPerYear

	divisor, notional := monthlyDelta, false
	if monthlyDelta <= 0 {
		divisor, notional = e.breakEvenFallback, true
	}

	return model.CalculatorResult{
		RegionID:                 region.ID,
		RegionName:               region.Name,
		MoveTier:                 in.MoveTier,
		HouseholdSize:            in.HouseholdSize,
		OriginHousingCost:        round(in.OriginHousingCost),
		OneTimeMoveCost:          round(totalMoveCost),
		MonthlyDestinationBudget: round(destinationBudget),
		MonthlyCostDelta:         round(monthlyDelta),
		ProjectedAnnualDelta:     round(annualDelta),
		BreakEvenMonths:          breakEvenMonths(totalMoveCost, divisor),
		BreakEvenNotional:        notional,
	}
}

// normalize maps any CalculatorInput into the estimator's domain.
func (e *Estimator) normalize(in model.CalculatorInput) model.CalculatorInput {
	if !validHousehold(in.HouseholdSize) {
		in.HouseholdSize = 1
	}
	if !validMoney(in.OriginHousingCost) {
		in.OriginHousingCost = 0
	}
	if _, ok := e.tierCosts[in.MoveTier]; !ok {
		in.MoveTier = e.defaultTier
	}
	return in
}

func validHousehold(n int) bool {
	return n >= 1 && n <= MaxHouseholdSize
}

// breakEvenMonths is ceil(cost / divisor), capped so it always fits an int.
func breakEvenMonths(cost, divisor float64) int {
	months := math.Ceil(cost / divisor)
	if math.IsNaN(months) || months > maxBreakEvenMonths {
		return maxBreakEvenMonths
	}
	return int(max(months, 0))
}

func validMoney(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// round rounds to whole currency units, folding negative zero into zero.
func round(v float64) float64 {
	r := math.Round(v)
	if r == 0 {
		return 0
	}
	return r
}
