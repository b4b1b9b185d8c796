package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
)

const fallbackDescription = "A wonderful destination for your new life abroad."

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name + "_body").Funcs(template.FuncMap{"money": money}).Parse(body)),
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

var templates = map[model.EmailKind]emailTemplate{
	model.EmailWelcome: mustTemplate("welcome",
		`Welcome to {{.Brand}} - your move starts here`,
		`Hi {{.Name}},

Thank you for exploring your move with {{.Brand}}.

What happens next:
1. Our team will review your information
2. We'll send you a personalised relocation guide within 24 hours
3. You can book a free consultation call at any time

Questions? Just reply to this email.

The {{.Brand}} Team
`),
	model.EmailCalculatorFollowup: mustTemplate("calculator_followup",
		`Your relocation budget for {{.Region}} - next steps`,
		`Hi {{.Name}},

{{if gt .MonthlySavings 0.0}}Based on your calculator results, moving to {{.Region}} could save you
approximately {{money .MonthlySavings}} per month compared to your current rent.

That's {{money .AnnualSavings}} per year.
{{else}}Based on your calculator results, housing in {{.Region}} costs about
{{money .MonthlyExtra}} more per month than your current rent.
{{end}}
Your personalised breakdown:
- Current rent: {{money .OriginRent}}/month
- Estimated rent in {{.Region}}: {{money .DestinationRent}}/month
- Move type: {{.MoveType}}
- One-time move cost: {{money .MoveCost}}

Reply to this email with any questions.

The {{.Brand}} Team
`),
	model.EmailQuizFollowup: mustTemplate("quiz_followup",
		`Your perfect region: {{.TopRegion}}`,
		`Hi {{.Name}},

Based on your lifestyle preferences, we've found your ideal destinations.

Your top 3 matches:
{{range .Matches}}{{.Rank}}. {{.Name}} - {{.Percent}}% match
{{end}}
Why {{.TopRegion}} suits you:
{{.Description}}

Questions about {{.TopRegion}}? Just reply to this email.

The {{.Brand}} Team
`),
}

type matchLine struct {
	Rank    int
	Name    string
	Percent int
}

type templateData struct {
	Brand string
	Name  string

	Region          string
	MoveType        model.MoveTier
	OriginRent      float64
	DestinationRent float64
	MonthlySavings  float64
	MonthlyExtra    float64
	AnnualSavings   float64
	MoveCost        float64

	TopRegion   string
	Description string
	Matches     []matchLine
}

// Render produces the subject and body of kind for lead.
func Render(brand string, kind model.EmailKind, lead model.LeadRecord) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	data := templateData{Brand: brand, Name: lead.Name}
	if c := lead.Calculator; c != nil {
		r := c.Result
		data.Region = r.RegionName
		data.MoveType = r.MoveTier
		data.OriginRent = r.OriginHousingCost
		data.DestinationRent = r.OriginHousingCost - r.MonthlyCostDelta
		data.MonthlySavings = r.MonthlyCostDelta
		data.MonthlyExtra = -r.MonthlyCostDelta
		data.AnnualSavings = r.MonthlyCostDelta * 12
		data.MoveCost = r.OneTimeMoveCost
	}
	data.TopRegion, data.Description = "your new home", fallbackDescription
	if q := lead.Quiz; q != nil {
		if len(q.Matches) > 0 {
			data.TopRegion = q.Matches[0].RegionName
			if q.Matches[0].Description != "" {
				data.Description = q.Matches[0].Description
			}
		}
		for i := 0; i < 3; i++ {
			line := matchLine{Rank: i + 1, Name: "N/A"}
			if i < len(q.Matches) {
				line.Name, line.Percent = q.Matches[i].RegionName, q.Matches[i].MatchPercent
			}
			data.Matches = append(data.Matches, line)
		}
	}

	var sb, bb bytes.Buffer
	if err := t.subject.Execute(&sb, data); err != nil {
		return "", "", eris.Wrapf(err, "render %s subject", kind)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return "", "", eris.Wrapf(err, "render %s body", kind)
	}
	return sb.String(), bb.String(), nil
}

// KindsFor lists the follow-up emails a lead should receive: a welcome for
// everyone plus one follow-up matching the lead's payload.
func KindsFor(lead model.Lead) []model.EmailKind {
	kinds := []model.EmailKind{model.EmailWelcome}
	switch {
	case lead.Calculator != nil:
		kinds = append(kinds, model.EmailCalculatorFollowup)
	case lead.Quiz != nil:
		kinds = append(kinds, model.EmailQuizFollowup)
	}
	return kinds
}
