package model

// MoveTier selects how much of the household is shipped.
type MoveTier string

// Supported move tiers, cheapest first.
const (
	TierMinimal MoveTier = "minimal"
	TierPartial MoveTier = "partial"
	TierFull    MoveTier = "full"
)

// MoveTiers returns every tier in increasing cost order.
func MoveTiers() []MoveTier {
	return []MoveTier{TierMinimal, TierPartial, TierFull}
}

// CalculatorInput is one budget estimation request after coercion.
type CalculatorInput struct {
	HouseholdSize     int      `json:"household_size"`
	OriginHousingCost float64  `json:"origin_housing_cost"`
	MoveTier          MoveTier `json:"move_tier"`
	TargetRegionID    string   `json:"target_region_id"`
}

// CalculatorResult is the projection derived from a CalculatorInput.
// Money fields are rounded to whole units.
type CalculatorResult struct {
	RegionID          string   `json:"region_id"`
	RegionName        string   `json:"region_name"`
	MoveTier          MoveTier `json:"move_tier"`
	HouseholdSize     int      `json:"household_size"`
	OriginHousingCost float64  `json:"origin_housing_cost"`

	OneTimeMoveCost          float64 `json:"one_time_move_cost"`
	MonthlyDestinationBudget float64 `json:"monthly_destination_budget"`
	MonthlyCostDelta         float64 `json:"monthly_cost_delta"`
	ProjectedAnnualDelta     float64 `json:"projected_annual_delta"`
	BreakEvenMonths          int     `json:"break_even_months"`

	// BreakEvenNotional is set when relocating does not lower housing cost
	// and BreakEvenMonths was derived from the fallback divisor instead.
	BreakEvenNotional bool `json:"break_even_notional"`
}
