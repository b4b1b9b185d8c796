// Package model contains domain models passed between layers.
package model

// Attribute names a lifestyle dimension every region is scored on.
type Attribute string

// The fixed attribute set. Every Region carries a value for each.
const (
	AttrUrban            Attribute = "urban"
	AttrCoastal          Attribute = "coastal"
	AttrRural            Attribute = "rural"
	AttrCulturalAffinity Attribute = "culturalAffinity"
	AttrFamilyFit        Attribute = "familyFit"
	AttrCareerFit        Attribute = "careerFit"
)

// Attribute score bounds.
const (
	MinAttributeScore = 0
	MaxAttributeScore = 10
)

// Attributes lists the fixed attribute set in display order.
func Attributes() []Attribute {
	return []Attribute{AttrUrban, AttrCoastal, AttrRural, AttrCulturalAffinity, AttrFamilyFit, AttrCareerFit}
}

// CommunitySize classifies how large the established migrant community is.
type CommunitySize string

// Known community sizes, largest first.
const (
	CommunityVeryLarge   CommunitySize = "very-large"
	CommunityLarge       CommunitySize = "large"
	CommunityMediumLarge CommunitySize = "medium-large"
	CommunityMedium      CommunitySize = "medium"
	CommunitySmall       CommunitySize = "small"
)

// Region is a candidate destination. Regions are immutable once a catalog
// has been built from them.
type Region struct {
	ID            string            `json:"id" koanf:"id"`
	Name          string            `json:"name" koanf:"name"`
	Description   string            `json:"description" koanf:"description"`
	BaseCost      float64           `json:"base_cost" koanf:"base_cost"`
	ClimateTag    string            `json:"climate_tag" koanf:"climate_tag"`
	CommunitySize CommunitySize     `json:"community_size" koanf:"community_size"`
	Scores        map[Attribute]int `json:"attribute_scores" koanf:"attribute_scores"`
}

// Score returns the region's value for attribute a (zero when absent).
func (r Region) Score(a Attribute) int {
	return r.Scores[a]
}

// Clone returns a deep copy so callers can never reach catalog internals.
func (r Region) Clone() Region {
	scores := make(map[Attribute]int, len(r.Scores))
	for k, v := range r.Scores {
		scores[k] = v
	}
	r.Scores = scores
	return r
}
