package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
)

// pool is the subset of *pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL,
	source     TEXT NOT NULL,
	calculator JSONB,
	quiz       JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS email_logs (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	email_type TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	sent_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_email_logs_lead_id ON email_logs(lead_id);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool pool
	opts options
}

// NewPostgresStore connects to dsn, pings the server and migrates the schema.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	s := newPostgresStore(p, opts...)
	if err := s.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(p pool, opts ...Option) *PostgresStore {
	return &PostgresStore{pool: p, opts: applyOptions(opts)}
}

// Migrate creates the schema when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (model.LeadRecord, error) {
	calc, quiz, err := encodePayloads(lead)
	if err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "postgres")
	}
	rec := model.LeadRecord{Lead: lead, ID: s.opts.newID(), CreatedAt: s.opts.now().UTC()}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, email, name, source, calculator, quiz, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Email, rec.Name, string(rec.Source), calc, quiz, rec.CreatedAt,
	)
	if err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "postgres: insert lead")
	}
	return rec, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, f Filter) ([]model.LeadRecord, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, name, source, calculator, quiz, created_at FROM leads
		 WHERE ($1 = '' OR source = $1)
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		string(f.Source), f.Limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	out := make([]model.LeadRecord, 0)
	for rows.Next() {
		rec, err := scanPostgresLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (model.LeadRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, name, source, calculator, quiz, created_at FROM leads WHERE id = $1`, id)
	rec, err := scanPostgresLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LeadRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *PostgresStore) RecordEmail(ctx context.Context, log model.EmailLog) (model.EmailLog, error) {
	log.ID = s.opts.newID()
	if log.SentAt.IsZero() {
		log.SentAt = s.opts.now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO email_logs (id, lead_id, email_type, status, error, sent_at)
		 SELECT $1, id, $3, $4, $5, $6 FROM leads WHERE id = $2`,
		log.ID, log.LeadID, string(log.Kind), string(log.Status), log.Error, log.SentAt,
	)
	if err != nil {
		return model.EmailLog{}, eris.Wrapf(err, "postgres: insert email log for lead %s", log.LeadID)
	}
	if tag.RowsAffected() == 0 {
		return model.EmailLog{}, fmt.Errorf("%w: %s", ErrNotFound, log.LeadID)
	}
	return log, nil
}

func (s *PostgresStore) EmailsForLead(ctx context.Context, leadID string) ([]model.EmailLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, email_type, status, error, sent_at FROM email_logs
		 WHERE lead_id = $1 ORDER BY sent_at, id`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list emails for lead %s", leadID)
	}
	defer rows.Close()

	out := make([]model.EmailLog, 0)
	for rows.Next() {
		var (
			l            model.EmailLog
			kind, status string
		)
		if err := rows.Scan(&l.ID, &l.LeadID, &kind, &status, &l.Error, &l.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email log")
		}
		l.Kind, l.Status = model.EmailKind(kind), model.EmailStatus(status)
		l.SentAt = l.SentAt.UTC()
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate email logs")
}

func (s *PostgresStore) Stats(ctx context.Context) (model.LeadStats, error) {
	st := emptyStats()
	if err := s.groupCount(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`, func(k string, n int64) {
		st.BySource[model.Source(k)] = int(n)
		st.TotalLeads += int(n)
	}); err != nil {
		return model.LeadStats{}, err
	}
	if err := s.groupCount(ctx, `SELECT status, COUNT(*) FROM email_logs GROUP BY status`, func(k string, n int64) {
		st.Emails[model.EmailStatus(k)] = int(n)
	}); err != nil {
		return model.LeadStats{}, err
	}
	return st, nil
}

func (s *PostgresStore) groupCount(ctx context.Context, query string, fn func(key string, n int64)) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return eris.Wrap(err, "postgres: stats")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return eris.Wrap(err, "postgres: scan stats")
		}
		fn(key, n)
	}
	return eris.Wrap(rows.Err(), "postgres: iterate stats")
}

func scanPostgresLead(row pgx.Row) (model.LeadRecord, error) {
	var (
		rec        model.LeadRecord
		source     string
		calc, quiz []byte
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &source, &calc, &quiz, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, eris.Wrap(err, "postgres: scan lead")
	}
	rec.Source = model.Source(source)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if err := decodePayloads(&rec, calc, quiz); err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "postgres")
	}
	return rec, nil
}
