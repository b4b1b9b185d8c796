// Package mail renders and delivers the follow-up emails sent to leads.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
)

// Providers accepted by New.
const (
	ProviderLog  = "log"
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

// Message is one rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Send reports the status to record: a sender
// that only defers delivery returns EmailQueued.
type Sender interface {
	Send(ctx context.Context, msg Message) (model.EmailStatus, error)
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	From      string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	SESRegion string
}

// New builds the Sender for cfg. An smtp provider without host or user
// degrades to the log sender, which records messages as queued.
func New(ctx context.Context, cfg Config, log logger.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLog:
		return NewLogSender(log), nil
	case ProviderSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
			log.Warn(ctx, "smtp not configured, emails will be queued for manual send")
			return NewLogSender(log), nil
		}
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass), nil
	case ProviderSES:
		return NewSESSender(ctx, cfg.SESRegion)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
}

// LogSender records messages in the log without delivering them.
type LogSender struct {
	logger logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(l logger.Logger) *LogSender {
	if l == nil {
		l = logger.Nop()
	}
	return &LogSender{logger: l}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (model.EmailStatus, error) {
	if msg.To == "" {
		return model.EmailFailed, ErrNoRecipient
	}
	s.logger.Info(ctx, "email queued", logger.String("to", msg.To), logger.String("subject", msg.Subject))
	return model.EmailQueued, nil
}

func (s *LogSender) Name() string { return ProviderLog }
