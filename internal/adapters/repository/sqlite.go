package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL,
	source     TEXT NOT NULL,
	calculator TEXT,
	quiz       TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS email_logs (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	email_type TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	sent_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_email_logs_lead_id ON email_logs(lead_id);
`

// SQLiteStore implements Store on modernc.org/sqlite. Timestamps are
// stored as unix nanoseconds so ordering is exact.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens the database at dsn, enables WAL and migrates it.
func NewSQLiteStore(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: empty dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db, opts: applyOptions(opts)}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (model.LeadRecord, error) {
	calc, quiz, err := encodePayloads(lead)
	if err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "sqlite")
	}
	rec := model.LeadRecord{Lead: lead, ID: s.opts.newID(), CreatedAt: s.opts.now().UTC()}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, email, name, source, calculator, quiz, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Email, rec.Name, string(rec.Source), nullText(calc), nullText(quiz), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "sqlite: insert lead")
	}
	return rec, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, f Filter) ([]model.LeadRecord, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, source, calculator, quiz, created_at FROM leads
		 WHERE (? = '' OR source = ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		string(f.Source), string(f.Source), f.Limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	out := make([]model.LeadRecord, 0)
	for rows.Next() {
		rec, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (model.LeadRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, source, calculator, quiz, created_at FROM leads WHERE id = ?`, id)
	rec, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LeadRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *SQLiteStore) RecordEmail(ctx context.Context, log model.EmailLog) (model.EmailLog, error) {
	if _, err := s.GetLead(ctx, log.LeadID); err != nil {
		return model.EmailLog{}, err
	}
	log.ID = s.opts.newID()
	if log.SentAt.IsZero() {
		log.SentAt = s.opts.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_logs (id, lead_id, email_type, status, error, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.LeadID, string(log.Kind), string(log.Status), log.Error, log.SentAt.UnixNano(),
	)
	if err != nil {
		return model.EmailLog{}, eris.Wrapf(err, "sqlite: insert email log for lead %s", log.LeadID)
	}
	return log, nil
}

func (s *SQLiteStore) EmailsForLead(ctx context.Context, leadID string) ([]model.EmailLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, email_type, status, error, sent_at FROM email_logs
		 WHERE lead_id = ? ORDER BY sent_at, rowid`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list emails for lead %s", leadID)
	}
	defer rows.Close()

	out := make([]model.EmailLog, 0)
	for rows.Next() {
		var (
			l            model.EmailLog
			kind, status string
			sentAt       int64
		)
		if err := rows.Scan(&l.ID, &l.LeadID, &kind, &status, &l.Error, &sentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email log")
		}
		l.Kind, l.Status = model.EmailKind(kind), model.EmailStatus(status)
		l.SentAt = time.Unix(0, sentAt).UTC()
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate email logs")
}

func (s *SQLiteStore) Stats(ctx context.Context) (model.LeadStats, error) {
	st := emptyStats()
	if err := s.groupCount(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`, func(k string, n int) {
		st.BySource[model.Source(k)] = n
		st.TotalLeads += n
	}); err != nil {
		return model.LeadStats{}, err
	}
	if err := s.groupCount(ctx, `SELECT status, COUNT(*) FROM email_logs GROUP BY status`, func(k string, n int) {
		st.Emails[model.EmailStatus(k)] = n
	}); err != nil {
		return model.LeadStats{}, err
	}
	return st, nil
}

func (s *SQLiteStore) groupCount(ctx context.Context, query string, fn func(key string, n int)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: stats")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return eris.Wrap(err, "sqlite: scan stats")
		}
		fn(key, n)
	}
	return eris.Wrap(rows.Err(), "sqlite: iterate stats")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteLead(row scannable) (model.LeadRecord, error) {
	var (
		rec        model.LeadRecord
		source     string
		calc, quiz sql.NullString
		createdAt  int64
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &source, &calc, &quiz, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, eris.Wrap(err, "sqlite: scan lead")
	}
	rec.Source = model.Source(source)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := decodePayloads(&rec, []byte(calc.String), []byte(quiz.String)); err != nil {
		return model.LeadRecord{}, eris.Wrap(err, "sqlite")
	}
	return rec, nil
}

func nullText(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
