package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoCapacity is returned when a session has no available spots left.
var ErrNoCapacity = errors.New("session has no available spots")

// ErrAlreadyApproved is returned when the student already holds an approved
// request somewhere in the system.
var ErrAlreadyApproved = errors.New("student already has an approved request")

// ErrInvalidTransition is returned when the requested status change is not
// legal from the request's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx so the capacity counter
// statements can run standalone or inside a transition transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// reserveSpot decrements available_spots by one, refusing to go below zero.
// The WHERE guard makes the decrement atomic: of two concurrent callers
// racing for the last spot, exactly one statement matches the row.
func reserveSpot(ctx context.Context, ex execer, sessionID string) (bool, error) {
	res, err := ex.ExecContext(ctx, `
		UPDATE sessions
		SET available_spots = available_spots - 1
		WHERE id = $1 AND available_spots > 0
	`, sessionID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// releaseSpot increments available_spots by one, capped at max_spots so a
// double release cannot inflate capacity.
func releaseSpot(ctx context.Context, ex execer, sessionID string) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE sessions
		SET available_spots = available_spots + 1
		WHERE id = $1 AND available_spots < max_spots
	`, sessionID)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
