package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/relocator/internal/domain/model"
)

// MemoryStore keeps leads in process memory. It is the default driver and
// loses everything on restart.
type MemoryStore struct {
	opts options

	mu     sync.RWMutex
	leads  []model.LeadRecord
	index  map[string]int
	emails map[string][]model.EmailLog
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:   applyOptions(opts),
		index:  make(map[string]int),
		emails: make(map[string][]model.EmailLog),
	}
}

func (s *MemoryStore) CreateLead(_ context.Context, lead model.Lead) (model.LeadRecord, error) {
	rec := model.LeadRecord{Lead: cloneLead(lead), ID: s.opts.newID(), CreatedAt: s.opts.now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.LeadRecord{}, ErrClosed
	}
	s.index[rec.ID] = len(s.leads)
	s.leads = append(s.leads, rec)
	return rec, nil
}

func (s *MemoryStore) ListLeads(_ context.Context, f Filter) ([]model.LeadRecord, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LeadRecord, 0, min(f.Limit, len(s.leads)))
	for i := len(s.leads) - 1; i >= 0 && len(out) < f.Limit; i-- {
		if f.Source != "" && s.leads[i].Source != f.Source {
			continue
		}
		out = append(out, s.leads[i])
	}
	return out, nil
}

func (s *MemoryStore) GetLead(_ context.Context, id string) (model.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.LeadRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.leads[i], nil
}

func (s *MemoryStore) RecordEmail(_ context.Context, log model.EmailLog) (model.EmailLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[log.LeadID]; !ok {
		return model.EmailLog{}, fmt.Errorf("%w: %s", ErrNotFound, log.LeadID)
	}
	log.ID = s.opts.newID()
	if log.SentAt.IsZero() {
		log.SentAt = s.opts.now().UTC()
	}
	s.emails[log.LeadID] = append(s.emails[log.LeadID], log)
	return log, nil
}

func (s *MemoryStore) EmailsForLead(_ context.Context, leadID string) ([]model.EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := s.emails[leadID]
	out := make([]model.EmailLog, len(logs))
	copy(out, logs)
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (model.LeadStats, error) {
	st := emptyStats()
	s.mu.RLock()
	defer s.mu.RUnlock()
	st.TotalLeads = len(s.leads)
	for _, l := range s.leads {
		st.BySource[l.Source]++
	}
	for _, logs := range s.emails {
		for _, l := range logs {
			st.Emails[l.Status]++
		}
	}
	return st, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// cloneLead copies the payload slices so callers cannot mutate stored
// records.
func cloneLead(l model.Lead) model.Lead {
	if l.Calculator != nil {
		c := *l.Calculator
		l.Calculator = &c
	}
	if l.Quiz != nil {
		q := model.QuizPayload{
			Answers: append([]model.QuizAnswer(nil), l.Quiz.Answers...),
			Matches: append([]model.MatchResult(nil), l.Quiz.Matches...),
		}
		l.Quiz = &q
	}
	return l
}
