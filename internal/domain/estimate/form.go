package estimate

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/relocator/internal/domain/model"
)

// Form is raw calculator input as submitted by a browser form: every field
// is optional free text.
type Form struct {
	HouseholdSize     string
	OriginHousingCost string
	MoveTier          string
	TargetRegionID    string
}

// Coerce turns f into a valid CalculatorInput. Missing or malformed fields
// fall back to defaults (one person, zero rent, the default tier), and so do
// households above MaxHouseholdSize. An unknown region is kept as-is and
// resolved to the catalog default later.
func (e *Estimator) Coerce(f Form) model.CalculatorInput {
	in := model.CalculatorInput{
		HouseholdSize:     parseHousehold(f.HouseholdSize),
		OriginHousingCost: parseMoney(f.OriginHousingCost),
		MoveTier:          model.MoveTier(strings.ToLower(strings.TrimSpace(f.MoveTier))),
		TargetRegionID:    strings.TrimSpace(f.TargetRegionID),
	}
	return e.normalize(in)
}

func parseHousehold(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if !validHousehold(n) {
			return 1
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 1 || f >= MaxHouseholdSize+1 {
		return 1
	}
	return int(f)
}

func parseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "£€$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !validMoney(f) {
		return 0
	}
	return f
}
