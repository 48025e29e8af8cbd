package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.SessionWithDetails, int, error)
	GetByProfessor(ctx context.Context, professorID string) ([]models.Session, error)
	Exists(ctx context.Context, id string) (bool, error)
	Reserve(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	UpdateGuarded(ctx context.Context, id string, apply func(*models.Session) error) (*models.Session, error)
}

type sessionRepository struct {
	*PostgresRepository
}

func NewSessionRepository(db *sql.DB, logger zerolog.Logger) SessionRepository {
	return &sessionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, professor_id, description, start_time, end_time, max_spots, available_spots, term_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.ProfessorID,
		session.Description,
		session.StartTime,
		session.EndTime,
		session.MaxSpots,
		session.AvailableSpots,
		session.TermID,
	)

	return err
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, professor_id, description, start_time, end_time, max_spots, available_spots, term_id
		FROM sessions
		WHERE id = $1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.ProfessorID,
		&session.Description,
		&session.StartTime,
		&session.EndTime,
		&session.MaxSpots,
		&session.AvailableSpots,
		&session.TermID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return session, err
}

func (r *sessionRepository) GetAll(ctx context.Context, limit, offset int) ([]models.SessionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM sessions`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			s.id, s.professor_id, s.description, s.start_time, s.end_time, s.max_spots, s.available_spots, s.term_id,
			p.full_name as professor_name, p.department as professor_department,
			t.name as term_name, t.academic_year as term_academic_year
		FROM sessions s
		JOIN professors p ON s.professor_id = p.id
		JOIN university_terms t ON s.term_id = t.id
		ORDER BY s.start_time
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []models.SessionWithDetails
	for rows.Next() {
		var session models.SessionWithDetails
		err := rows.Scan(
			&session.ID,
			&session.ProfessorID,
			&session.Description,
			&session.StartTime,
			&session.EndTime,
			&session.MaxSpots,
			&session.AvailableSpots,
			&session.TermID,
			&session.ProfessorName,
			&session.ProfessorDepartment,
			&session.TermName,
			&session.TermAcademicYear,
		)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, session)
	}

	return sessions, total, rows.Err()
}

func (r *sessionRepository) GetByProfessor(ctx context.Context, professorID string) ([]models.Session, error) {
	query := `
		SELECT id, professor_id, description, start_time, end_time, max_spots, available_spots, term_id
		FROM sessions
		WHERE professor_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(
			&session.ID,
			&session.ProfessorID,
			&session.Description,
			&session.StartTime,
			&session.EndTime,
			&session.MaxSpots,
			&session.AvailableSpots,
			&session.TermID,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

// Reserve consumes one capacity unit. It returns ErrNoCapacity when the
// session is full and ErrNotFound when the session does not exist.
func (r *sessionRepository) Reserve(ctx context.Context, id string) error {
	ok, err := reserveSpot(ctx, r.db, id)
	if err != nil {
		return fmt.Errorf("reserve spot: %w", err)
	}
	if ok {
		return nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNoCapacity
}

// Release returns one capacity unit, capped at max_spots.
func (r *sessionRepository) Release(ctx context.Context, id string) error {
	if err := releaseSpot(ctx, r.db, id); err != nil {
		return fmt.Errorf("release spot: %w", err)
	}
	return nil
}

// UpdateGuarded edits a session under a row-level lock. The apply callback
// receives the current row and mutates it in place; returning an error
// aborts the whole edit with no state change. Capacity accounting done by
// the callback is therefore atomic with respect to concurrent reservations.
func (r *sessionRepository) UpdateGuarded(ctx context.Context, id string, apply func(*models.Session) error) (*models.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	session := &models.Session{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, professor_id, description, start_time, end_time, max_spots, available_spots, term_id
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&session.ID,
		&session.ProfessorID,
		&session.Description,
		&session.StartTime,
		&session.EndTime,
		&session.MaxSpots,
		&session.AvailableSpots,
		&session.TermID,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session row: %w", err)
	}

	if err := apply(session); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions
		SET description = $1, start_time = $2, end_time = $3, max_spots = $4, available_spots = $5
		WHERE id = $6
	`,
		session.Description,
		session.StartTime,
		session.EndTime,
		session.MaxSpots,
		session.AvailableSpots,
		session.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return session, nil
}
