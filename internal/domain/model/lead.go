package model

import "time"

// Source tags the tool a lead originated from.
type Source string

// Lead sources.
const (
	SourceCalculator Source = "calculator"
	SourceQuiz       Source = "quiz"
	SourceNewsletter Source = "newsletter"
)

// Sources returns all lead sources.
func Sources() []Source {
	return []Source{SourceCalculator, SourceQuiz, SourceNewsletter}
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceCalculator, SourceQuiz, SourceNewsletter:
		return true
	}
	return false
}

// CalculatorPayload pairs the coerced calculator input with its result.
type CalculatorPayload struct {
	Input  CalculatorInput  `json:"input"`
	Result CalculatorResult `json:"result"`
}

// QuizPayload pairs the quiz answers with the ranked matches.
type QuizPayload struct {
	Answers []QuizAnswer  `json:"answers"`
	Matches []MatchResult `json:"matches"`
}

// Lead is the envelope handed to the lead store. At most one of
// Calculator and Quiz is set; newsletter leads carry neither.
type Lead struct {
	Email      string             `json:"email"`
	Name       string             `json:"name"`
	Source     Source             `json:"source"`
	Calculator *CalculatorPayload `json:"calculator,omitempty"`
	Quiz       *QuizPayload       `json:"quiz,omitempty"`
}

// LeadRecord is a Lead as persisted by the store.
type LeadRecord struct {
	Lead
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailKind names a follow-up template.
type EmailKind string

// Email kinds.
const (
	EmailWelcome            EmailKind = "welcome"
	EmailCalculatorFollowup EmailKind = "calculator_followup"
	EmailQuizFollowup       EmailKind = "quiz_followup"
)

// EmailStatus is the delivery outcome recorded for an email.
type EmailStatus string

// Email statuses.
const (
	EmailSent   EmailStatus = "sent"
	EmailQueued EmailStatus = "queued"
	EmailFailed EmailStatus = "failed"
)

// EmailLog records one delivery attempt for a lead.
type EmailLog struct {
	ID     string      `json:"id"`
	LeadID string      `json:"lead_id"`
	Kind   EmailKind   `json:"type"`
	Status EmailStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
	SentAt time.Time   `json:"sent_at"`
}

// LeadStats aggregates lead and email counts.
type LeadStats struct {
	TotalLeads int                 `json:"total_leads"`
	BySource   map[Source]int      `json:"by_source"`
	Emails     map[EmailStatus]int `json:"emails"`
}

// EmailJob asks the dispatcher to send one follow-up email for a lead.
type EmailJob struct {
	Lead       LeadRecord `json:"lead"`
	Kind       EmailKind  `json:"kind"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}
