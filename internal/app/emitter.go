package service

import (
	"context"
	"time"

	"github.com/okian/relocator/internal/adapters/mail"
	"github.com/okian/relocator/internal/adapters/mq/queue"
	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
	"github.com/okian/relocator/pkg/metrics"
)

// leadEmitter stores leads and schedules their follow-up emails. Email
// scheduling never fails a lead: a job that cannot be queued is recorded as
// a failed email instead.
type leadEmitter struct {
	store  repository.Store
	queue  queue.Queue
	logger logger.Logger
	now    func() time.Time
}

func (e *leadEmitter) CreateLead(ctx context.Context, lead model.Lead) (model.LeadRecord, error) {
	rec, err := e.store.CreateLead(ctx, lead)
	if err != nil {
		return model.LeadRecord{}, err
	}
	metrics.RecordLeadCreated(string(rec.Source))

	for _, kind := range mail.KindsFor(rec.Lead) {
		job := model.EmailJob{Lead: rec, Kind: kind, EnqueuedAt: e.now().UTC()}
		qerr := e.queue.Enqueue(ctx, job)
		if qerr == nil {
			continue
		}
		e.logger.Warn(ctx, "email not scheduled",
			logger.String("lead_id", rec.ID),
			logger.String("kind", string(kind)),
			logger.Error(qerr),
		)
		metrics.RecordEmail(string(kind), string(model.EmailFailed))
		entry := model.EmailLog{LeadID: rec.ID, Kind: kind, Status: model.EmailFailed, Error: qerr.Error(), SentAt: e.now().UTC()}
		if _, err := e.store.RecordEmail(ctx, entry); err != nil {
			e.logger.Error(ctx, "record unscheduled email", logger.String("lead_id", rec.ID), logger.Error(err))
		}
	}
	return rec, nil
}
