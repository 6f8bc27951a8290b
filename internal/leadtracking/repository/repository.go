// Package repository provides Postgres storage for lead activities, scores
// and followups, plus read access to the profile and listing tables.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"

	pendingFollowupIndex = "uq_lead_followups_pending_pair"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements LeadTrackingRepository on Postgres.
type Repository struct {
	db DBTX
}

// New creates a new lead-tracking repository.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

var _ LeadTrackingRepository = (*Repository)(nil)

// translateWriteError maps constraint violations to package sentinels and
// passes everything else through unchanged.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return errors.Join(ErrInvalidReference, err)
	case pgUniqueViolation:
		if pgErr.ConstraintName == pendingFollowupIndex {
			return errors.Join(ErrPendingFollowupExists, err)
		}
	}
	return err
}

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
