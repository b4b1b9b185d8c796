// Package repository persists leads and their follow-up email log.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
)

// DefaultLimit is used when a Filter leaves Limit at zero.
const DefaultLimit = 100

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Filter narrows ListLeads.
type Filter struct {
	Source model.Source
	Limit  int
}

func (f Filter) normalize() (Filter, error) {
	if f.Limit < 0 {
		return f, fmt.Errorf("%w: %d", ErrInvalidLimit, f.Limit)
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Source != "" && !f.Source.Valid() {
		return f, fmt.Errorf("%w: unknown source %q", ErrInvalidFilter, f.Source)
	}
	return f, nil
}

// Store provides read/write access to leads and email logs.
type Store interface {
	// CreateLead persists lead and returns it with its id and timestamp.
	CreateLead(ctx context.Context, lead model.Lead) (model.LeadRecord, error)
	// ListLeads returns leads newest first.
	ListLeads(ctx context.Context, f Filter) ([]model.LeadRecord, error)
	// GetLead returns ErrNotFound for unknown ids.
	GetLead(ctx context.Context, id string) (model.LeadRecord, error)
	// RecordEmail appends a delivery attempt for an existing lead.
	RecordEmail(ctx context.Context, log model.EmailLog) (model.EmailLog, error)
	// EmailsForLead returns the email log of a lead oldest first.
	EmailsForLead(ctx context.Context, leadID string) ([]model.EmailLog, error)
	// Stats aggregates totals across the store.
	Stats(ctx context.Context) (model.LeadStats, error)
	Close() error
}

// Open creates the Store named by driver. dsn is ignored by the memory
// driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn, opts...)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, opts...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
}

func emptyStats() model.LeadStats {
	st := model.LeadStats{
		BySource: make(map[model.Source]int, len(model.Sources())),
		Emails:   map[model.EmailStatus]int{model.EmailSent: 0, model.EmailQueued: 0, model.EmailFailed: 0},
	}
	for _, s := range model.Sources() {
		st.BySource[s] = 0
	}
	return st
}

// encodePayloads marshals the optional payload parts; absent parts map to
// nil so they are stored as NULL.
func encodePayloads(lead model.Lead) (calc, quiz []byte, err error) {
	if lead.Calculator != nil {
		if calc, err = json.Marshal(lead.Calculator); err != nil {
			return nil, nil, eris.Wrap(err, "marshal calculator payload")
		}
	}
	if lead.Quiz != nil {
		if quiz, err = json.Marshal(lead.Quiz); err != nil {
			return nil, nil, eris.Wrap(err, "marshal quiz payload")
		}
	}
	return calc, quiz, nil
}

func decodePayloads(rec *model.LeadRecord, calc, quiz []byte) error {
	if len(calc) > 0 {
		rec.Calculator = &model.CalculatorPayload{}
		if err := json.Unmarshal(calc, rec.Calculator); err != nil {
			return eris.Wrapf(err, "unmarshal calculator payload of lead %s", rec.ID)
		}
	}
	if len(quiz) > 0 {
		rec.Quiz = &model.QuizPayload{}
		if err := json.Unmarshal(quiz, rec.Quiz); err != nil {
			return eris.Wrapf(err, "unmarshal quiz payload of lead %s", rec.ID)
		}
	}
	return nil
}
