package matching

import (
	"strings"

	"github.com/okian/relocator/internal/domain/model"
)

// Question ids of the region quiz.
const (
	QuestionEnvironment = 1
	QuestionClimate     = 2
	QuestionMotive      = 3
	QuestionCommunity   = 4
	QuestionLifestyle   = 5
)

// flatPoints is awarded for binary matches and for weak-signal choices.
const (
	climatePoints   = 10
	adventurePoints = 5
	attributeCeil   = float64(model.MaxAttributeScore)
)

// rule scores one answer choice against one region.
type rule func(r *model.Region, choice string) float64

var rules = map[int]rule{
	QuestionEnvironment: environment,
	QuestionClimate:     climate,
	QuestionMotive:      motive,
	QuestionCommunity:   community,
	QuestionLifestyle:   lifestyle,
}

func attr(r *model.Region, a model.Attribute) float64 {
	return float64(r.Score(a))
}

func environment(r *model.Region, choice string) float64 {
	switch choice {
	case "urban":
		return attr(r, model.AttrUrban)
	case "coastal":
		return attr(r, model.AttrCoastal)
	case "rural":
		return attr(r, model.AttrRural)
	case "mixed":
		return (attr(r, model.AttrUrban) + attr(r, model.AttrRural)) / 2
	}
	return 0
}

func climate(r *model.Region, choice string) float64 {
	switch choice {
	case "mediterranean", "oceanic", "continental", "alpine":
		if strings.Contains(strings.ToLower(r.ClimateTag), choice) {
			return climatePoints
		}
	}
	return 0
}

func motive(r *model.Region, choice string) float64 {
	switch choice {
	case "career":
		return attr(r, model.AttrCareerFit)
	case "family":
		return attr(r, model.AttrFamilyFit)
	case "retirement":
		return attributeCeil - attr(r, model.AttrCareerFit) + attr(r, model.AttrCulturalAffinity)
	case "adventure":
		return adventurePoints
	}
	return 0
}

// CommunityScore maps a community size onto the 0-10 scale used by the
// community question.
func CommunityScore(size model.CommunitySize) float64 {
	switch size {
	case model.CommunityVeryLarge:
		return 10
	case model.CommunityLarge:
		return 8
	case model.CommunityMediumLarge:
		return 6
	}
	return 4
}

func community(r *model.Region, choice string) float64 {
	s := CommunityScore(r.CommunitySize)
	switch choice {
	case "high":
		return s
	case "medium":
		return s / 2
	case "none":
		return attributeCeil - s
	}
	return 0
}

func lifestyle(r *model.Region, choice string) float64 {
	switch choice {
	case "gastronomy":
		return attr(r, model.AttrCulturalAffinity)
	case "outdoor":
		return attr(r, model.AttrRural) + attr(r, model.AttrCoastal)
	case "culture":
		return attr(r, model.AttrUrban)
	case "peaceful":
		return attr(r, model.AttrRural)
	}
	return 0
}
