// Package auditrepo stores the fulfillment audit trail in PostgreSQL through
// database/sql and the lib/pq driver. Rows are append-only; seq preserves the
// order in which attempts were appended.
package auditrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/audit"
	"fulfillment/internal/core/ports"

	"github.com/lib/pq"
)

var _ ports.AttemptLog = (*SQLAttemptLog)(nil)

// Schema creates the attempts table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS fulfillment_attempts (
	seq           BIGSERIAL PRIMARY KEY,
	id            UUID        NOT NULL UNIQUE,
	order_id      TEXT        NOT NULL,
	operator      TEXT        NOT NULL DEFAULT '',
	stage         TEXT        NOT NULL,
	outcome       TEXT        NOT NULL,
	reference     TEXT        NOT NULL DEFAULT '',
	tracking_code TEXT        NOT NULL DEFAULT '',
	reason        TEXT        NOT NULL DEFAULT '',
	trace_id      TEXT        NOT NULL DEFAULT '',
	span_id       TEXT        NOT NULL DEFAULT '',
	attempted_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS fulfillment_attempts_order_stage_idx
	ON fulfillment_attempts (order_id, stage, seq);
`

const columns = `id, order_id, operator, stage, outcome, reference, tracking_code, reason, trace_id, span_id, attempted_at`

type SQLAttemptLog struct {
	db *sql.DB
}

func NewSQLAttemptLog(db *sql.DB) *SQLAttemptLog {
	return &SQLAttemptLog{db: db}
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate fulfillment_attempts: %w", err)
	}
	return nil
}

func (l *SQLAttemptLog) Append(ctx context.Context, a audit.Attempt) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO fulfillment_attempts (`+columns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.OrderID, a.Operator, string(a.Stage), string(a.Outcome),
		a.Reference, a.TrackingCode, a.Reason, a.TraceID, a.SpanID, a.At.UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("attempt %s already recorded: %w", a.ID, err)
		}
		return fmt.Errorf("append attempt for order %s: %w", a.OrderID, err)
	}
	return nil
}

func (l *SQLAttemptLog) List(ctx context.Context, orderID string) ([]audit.Attempt, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+columns+` FROM fulfillment_attempts WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list attempts for order %s: %w", orderID, err)
	}
	defer rows.Close()

	attempts := make([]audit.Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (l *SQLAttemptLog) LastSucceeded(ctx context.Context, orderID string, stage audit.Stage) (audit.Attempt, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM fulfillment_attempts
		 WHERE order_id = $1 AND stage = $2 AND outcome = $3
		 ORDER BY seq DESC LIMIT 1`,
		orderID, string(stage), string(audit.OutcomeSucceeded))

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Attempt{}, false, nil
	}
	if err != nil {
		return audit.Attempt{}, false, err
	}
	return a, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(s scanner) (audit.Attempt, error) {
	var (
		a       audit.Attempt
		stage   string
		outcome string
	)
	err := s.Scan(&a.ID, &a.OrderID, &a.Operator, &stage, &outcome,
		&a.Reference, &a.TrackingCode, &a.Reason, &a.TraceID, &a.SpanID, &a.At)
	if err != nil {
		return audit.Attempt{}, err
	}
	a.Stage = audit.Stage(stage)
	a.Outcome = audit.Outcome(outcome)
	a.At = a.At.UTC()
	return a, nil
}
