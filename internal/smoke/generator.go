package smoke

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/relocator/internal/domain/matching"
	"github.com/okian/relocator/internal/domain/model"
)

// emailNamespace keys the deterministic visitor ids.
var emailNamespace = uuid.MustParse("6f1c8a52-3d0e-4b7a-9f64-2a5e1d7c9b30")

var questionChoices = map[int][]string{
	matching.QuestionEnvironment: {"urban", "coastal", "rural", "mixed"},
	matching.QuestionClimate:     {"mediterranean", "oceanic", "continental", "alpine"},
	matching.QuestionMotive:      {"career", "family", "retirement", "adventure"},
	matching.QuestionCommunity:   {"high", "medium", "none"},
	matching.QuestionLifestyle:   {"gastronomy", "outdoor", "culture", "peaceful"},
}

var (
	tiers      = []string{"minimal", "partial", "full", "FULL", "", "premium"}
	households = []string{"1", "2", "3", "4", "5", "", "two", "2.0"}
	names      = []string{"Ana", "Bo", "Chloé", "Dario", ""}
)

// Generate returns n scenarios. The same seed and regions always yield the
// same scenarios.
func Generate(seed uint64, n int, regions []model.Region) []Scenario {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Scenario, n)
	for i := range out {
		s := Scenario{
			Email: visitorEmail(seed, i),
			Name:  pick(rng, names),
		}
		switch rng.IntN(3) {
		case 0:
			s.Kind = KindEstimate
			s.Form = randomForm(rng, regions)
		case 1:
			s.Kind = KindMatch
			s.Answers = randomAnswers(rng)
		default:
			s.Kind = KindNewsletter
		}
		out[i] = s
	}
	return out
}

func visitorEmail(seed uint64, i int) string {
	id := uuid.NewSHA1(emailNamespace, []byte(strconv.FormatUint(seed, 10)+"/"+strconv.Itoa(i)))
	return "smoke+" + id.String()[:8] + "@example.com"
}

func randomForm(rng *rand.Rand, regions []model.Region) *Form {
	f := &Form{
		HouseholdSize: pick(rng, households),
		MoveTier:      pick(rng, tiers),
	}
	// Rents between 400 and 4000, sometimes written like a person would.
	rent := 400 + rng.IntN(3600)
	switch rng.IntN(4) {
	case 0:
		f.OriginHousingCost = "€" + strconv.Itoa(rent)
	case 1:
		f.OriginHousingCost = strconv.Itoa(rent/1000) + "," + pad3(rent%1000)
	case 2:
		f.OriginHousingCost = ""
	default:
		f.OriginHousingCost = strconv.Itoa(rent)
	}
	if len(regions) > 0 && rng.IntN(10) > 0 {
		f.TargetRegionID = regions[rng.IntN(len(regions))].ID
	} else {
		f.TargetRegionID = "atlantis"
	}
	return f
}

func randomAnswers(rng *rand.Rand) []model.QuizAnswer {
	var answers []model.QuizAnswer
	for q := matching.QuestionEnvironment; q <= matching.QuestionLifestyle; q++ {
		// Visitors skip about one question in five.
		if rng.IntN(5) == 0 {
			continue
		}
		answers = append(answers, model.QuizAnswer{QuestionID: q, Choice: pick(rng, questionChoices[q])})
	}
	return answers
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
