package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/gate"
	"github.com/okian/relocator/internal/domain/model"
)

// flexString accepts a JSON string, number or boolean and keeps its text.
// Browser forms send numbers either way; coercion happens in the estimator.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			*f = flexString(n.String())
			return nil
		}
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(strconv.FormatBool(v))
	}
	return nil
}

type calculatorForm struct {
	HouseholdSize     flexString `json:"household_size"`
	OriginHousingCost flexString `json:"origin_housing_cost"`
	MoveTier          flexString `json:"move_tier"`
	TargetRegionID    flexString `json:"target_region_id"`
}

func (f calculatorForm) form() estimate.Form {
	return estimate.Form{
		HouseholdSize:     string(f.HouseholdSize),
		OriginHousingCost: string(f.OriginHousingCost),
		MoveTier:          string(f.MoveTier),
		TargetRegionID:    string(f.TargetRegionID),
	}
}

type quizAnswer struct {
	QuestionID flexString `json:"question_id"`
	Choice     flexString `json:"choice"`
}

type quizForm struct {
	Answers []quizAnswer `json:"answers"`
}

// answers converts the submitted answers. Entries whose question id is not
// an integer are dropped; the matcher ignores unknown questions anyway.
func (f quizForm) answers() []model.QuizAnswer {
	out := make([]model.QuizAnswer, 0, len(f.Answers))
	for _, a := range f.Answers {
		id, err := strconv.Atoi(string(a.QuestionID))
		if err != nil {
			continue
		}
		out = append(out, model.QuizAnswer{QuestionID: id, Choice: string(a.Choice)})
	}
	return out
}

type contactForm struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (f contactForm) contact() gate.Contact {
	return gate.Contact{Email: f.Email, Name: f.Name}
}

type calculatorLeadRequest struct {
	contactForm
	calculatorForm
}

type quizLeadRequest struct {
	contactForm
	quizForm
}
