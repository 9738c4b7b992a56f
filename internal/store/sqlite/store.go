// Package sqlite persists normalized delivery reports in a SQLite database
// using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS delivery_reports (
	gateway     TEXT    NOT NULL,
	message_id  TEXT    NOT NULL,
	recipient   TEXT    NOT NULL,
	bulk_id     TEXT    NOT NULL DEFAULT '',
	status      TEXT    NOT NULL,
	error_code  TEXT    NOT NULL,
	final       INTEGER NOT NULL DEFAULT 0,
	payload     TEXT    NOT NULL,
	updated_at  TEXT    NOT NULL,
	PRIMARY KEY (gateway, message_id, recipient)
);
CREATE INDEX IF NOT EXISTS delivery_reports_recipient ON delivery_reports(recipient);`

// A final status is never replaced by a non-final one; reports for the same
// message can arrive out of order.
const upsert = `INSERT INTO delivery_reports
	(gateway, message_id, recipient, bulk_id, status, error_code, final, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(gateway, message_id, recipient) DO UPDATE SET
	bulk_id    = excluded.bulk_id,
	status     = excluded.status,
	error_code = excluded.error_code,
	final      = excluded.final,
	payload    = excluded.payload,
	updated_at = excluded.updated_at
WHERE NOT (delivery_reports.final = 1 AND excluded.final = 0)`

const selectColumns = `SELECT gateway, payload, updated_at FROM delivery_reports`

// ErrEmptyRecipient is returned when a report carries no recipient.
var ErrEmptyRecipient = errors.New("report has no recipient")

// StoredReport is a persisted report with the time it was last written.
type StoredReport struct {
	models.DeliveryReport
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportStore keeps the latest report per (gateway, message id, recipient).
type ReportStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a ReportStore.
type Option func(*ReportStore)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *ReportStore) {
		if !reflect.ValueOf(logger).IsZero() {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *ReportStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*ReportStore, error) {
	if path == "" {
		return nil, errors.New("report store path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &ReportStore{db: db, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		s.logger.Warn().Err(err).Msg("could not enable WAL journal mode")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply report store schema: %w", err)
	}
	s.logger.Debug().Str("path", path).Msg("report store opened")
	return s, nil
}

// Save upserts reports received from gateway in a single transaction.
func (s *ReportStore) Save(ctx context.Context, gateway string, reports []models.DeliveryReport) error {
	if len(reports) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, report := range reports {
		if report.Recipient == "" {
			return ErrEmptyRecipient
		}
		report.Gateway = gateway
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report for %s: %w", report.Recipient, err)
		}
		final := 0
		if report.Status.Final() {
			final = 1
		}
		if _, err := stmt.ExecContext(ctx,
			gateway, report.MessageID, report.Recipient, report.BulkID,
			string(report.Status), string(report.ErrorCode), final, string(payload), updatedAt,
		); err != nil {
			return fmt.Errorf("upsert report for %s: %w", report.Recipient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug().Str("gateway", gateway).Int("reports", len(reports)).Msg("delivery reports saved")
	return nil
}

// ListByMessageID returns the reports of a gateway message id, ordered by recipient.
func (s *ReportStore) ListByMessageID(ctx context.Context, gateway, messageID string) ([]StoredReport, error) {
	return s.list(ctx, selectColumns+` WHERE gateway = ? AND message_id = ? ORDER BY recipient`, gateway, messageID)
}

// ListByRecipient returns every report for recipient, most recent first.
func (s *ReportStore) ListByRecipient(ctx context.Context, recipient string) ([]StoredReport, error) {
	return s.list(ctx, selectColumns+` WHERE recipient = ? ORDER BY updated_at DESC, gateway, message_id`, recipient)
}

func (s *ReportStore) list(ctx context.Context, query string, args ...any) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]StoredReport, 0)
	for rows.Next() {
		var (
			gateway   string
			payload   string
			updatedAt string
			stored    StoredReport
		)
		if err := rows.Scan(&gateway, &payload, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &stored.DeliveryReport); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		stored.Gateway = gateway
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			stored.UpdatedAt = ts
		}
		out = append(out, stored)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *ReportStore) Close() error {
	return s.db.Close()
}
