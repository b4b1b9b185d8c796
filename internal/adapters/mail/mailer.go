package mail

import (
	"context"
	"time"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/metrics"
)

// Mailer renders a job and hands it to a Sender.
type Mailer struct {
	sender Sender
	brand  string
	from   string
	now    func() time.Time
}

// Option applies a configuration option to the Mailer.
type Option func(*Mailer)

// WithBrand sets the product name used in templates.
func WithBrand(brand string) Option {
	return func(m *Mailer) {
		if brand != "" {
			m.brand = brand
		}
	}
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(m *Mailer) {
		if from != "" {
			m.from = from
		}
	}
}

// NewMailer creates a Mailer over sender.
func NewMailer(sender Sender, opts ...Option) *Mailer {
	m := &Mailer{sender: sender, brand: "Relocator", from: "hello@relocator.local", now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliver renders and sends job, returning the log entry to record. The
// entry carries the failure instead of an error: a failed email is a
// recorded outcome, not a reason to stop.
func (m *Mailer) Deliver(ctx context.Context, job model.EmailJob) model.EmailLog {
	entry := model.EmailLog{LeadID: job.Lead.ID, Kind: job.Kind}

	subject, body, err := Render(m.brand, job.Kind, job.Lead)
	if err != nil {
		entry.Status, entry.Error, entry.SentAt = model.EmailFailed, err.Error(), m.now().UTC()
		return entry
	}

	start := time.Now()
	status, err := m.sender.Send(ctx, Message{From: m.from, To: job.Lead.Email, Subject: subject, Body: body})
	metrics.RecordEmailSendLatency(float64(time.Since(start).Milliseconds()))

	entry.Status, entry.SentAt = status, m.now().UTC()
	if err != nil {
		entry.Status, entry.Error = model.EmailFailed, err.Error()
	} else if status == model.EmailQueued {
		entry.Error = "no mail provider configured - queued for manual send"
	}
	return entry
}

// Provider names the underlying sender.
func (m *Mailer) Provider() string { return m.sender.Name() }
