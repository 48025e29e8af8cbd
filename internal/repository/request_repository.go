package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.RequestWithDetails, int, error)
	GetByStudent(ctx context.Context, studentID string) ([]models.RequestWithDetails, error)
	GetBySession(ctx context.Context, sessionID string) ([]models.RequestWithDetails, error)
	GetApprovedByProfessor(ctx context.Context, professorID string) ([]models.RequestWithDetails, error)
	Approve(ctx context.Context, id string) (*models.Request, error)
	Reject(ctx context.Context, id, reason string) (*models.Request, error)
	DeleteReleasing(ctx context.Context, id string) (*models.Request, error)
	SetStudentFile(ctx context.Context, id string, key *string) error
	SetReviewerFile(ctx context.Context, id string, key *string) error
}

type requestRepository struct {
	*PostgresRepository
}

func NewRequestRepository(db *sql.DB, logger zerolog.Logger) RequestRepository {
	return &requestRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const requestColumns = `id, student_id, session_id, status, rejection_reason, student_file_key, reviewer_file_key, message, created_at, updated_at`

func scanRequest(row *sql.Row, request *models.Request) error {
	return row.Scan(
		&request.ID,
		&request.StudentID,
		&request.SessionID,
		&request.Status,
		&request.RejectionReason,
		&request.StudentFileKey,
		&request.ReviewerFileKey,
		&request.Message,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	query := `
		INSERT INTO requests (id, student_id, session_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		request.ID,
		request.StudentID,
		request.SessionID,
		request.Status,
		request.Message,
		request.CreatedAt,
		request.UpdatedAt,
	)

	return err
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	request := &models.Request{}
	err := scanRequest(r.db.QueryRowContext(ctx, query, id), request)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return request, err
}

const requestDetailsQuery = `
	SELECT
		r.id, r.student_id, r.session_id, r.status, r.rejection_reason,
		r.student_file_key, r.reviewer_file_key, r.message, r.created_at, r.updated_at,
		st.full_name as student_name, st.faculty as student_faculty,
		s.start_time as session_start, s.end_time as session_end,
		s.professor_id, p.full_name as professor_name,
		t.name as term_name, t.academic_year as term_academic_year
	FROM requests r
	JOIN students st ON r.student_id = st.id
	JOIN sessions s ON r.session_id = s.id
	JOIN professors p ON s.professor_id = p.id
	JOIN university_terms t ON s.term_id = t.id
`

func (r *requestRepository) queryDetails(ctx context.Context, query string, args ...interface{}) ([]models.RequestWithDetails, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.RequestWithDetails
	for rows.Next() {
		var request models.RequestWithDetails
		err := rows.Scan(
			&request.ID,
			&request.StudentID,
			&request.SessionID,
			&request.Status,
			&request.RejectionReason,
			&request.StudentFileKey,
			&request.ReviewerFileKey,
			&request.Message,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.StudentName,
			&request.StudentFaculty,
			&request.SessionStart,
			&request.SessionEnd,
			&request.ProfessorID,
			&request.ProfessorName,
			&request.TermName,
			&request.TermAcademicYear,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func (r *requestRepository) GetAll(ctx context.Context, limit, offset int) ([]models.RequestWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM requests`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	requests, err := r.queryDetails(ctx,
		requestDetailsQuery+` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) GetByStudent(ctx context.Context, studentID string) ([]models.RequestWithDetails, error) {
	return r.queryDetails(ctx,
		requestDetailsQuery+` WHERE r.student_id = $1 ORDER BY r.created_at DESC`,
		studentID,
	)
}

func (r *requestRepository) GetBySession(ctx context.Context, sessionID string) ([]models.RequestWithDetails, error) {
	return r.queryDetails(ctx,
		requestDetailsQuery+` WHERE r.session_id = $1 ORDER BY r.created_at DESC`,
		sessionID,
	)
}

func (r *requestRepository) GetApprovedByProfessor(ctx context.Context, professorID string) ([]models.RequestWithDetails, error) {
	return r.queryDetails(ctx,
		requestDetailsQuery+` WHERE s.professor_id = $1 AND r.status = 'APPROVED' ORDER BY r.created_at DESC`,
		professorID,
	)
}

// lockRequest reads a request row under FOR UPDATE so concurrent transitions
// on the same request serialize.
func lockRequest(ctx context.Context, tx *sql.Tx, id string) (*models.Request, error) {
	request := &models.Request{}
	err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id,
	), request)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock request row: %w", err)
	}
	return request, nil
}

// Approve performs the PENDING/REJECTED -> APPROVED transition atomically:
// it locks the session row, verifies the student holds no other approved
// request, consumes one capacity unit, flips the status and cascades a
// delete of the student's remaining requests. Any failure rolls the whole
// transition back.
func (r *requestRepository) Approve(ctx context.Context, id string) (*models.Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	request, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if request.Status == models.RequestStatusApproved.String() {
		return nil, ErrInvalidTransition
	}

	// Serializes concurrent approvals against the same session.
	var availableSpots int
	err = tx.QueryRowContext(ctx,
		`SELECT available_spots FROM sessions WHERE id = $1 FOR UPDATE`,
		request.SessionID,
	).Scan(&availableSpots)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session row: %w", err)
	}

	var approvedElsewhere bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE student_id = $1 AND status = 'APPROVED' AND id != $2
		)
	`, request.StudentID, id).Scan(&approvedElsewhere)
	if err != nil {
		return nil, fmt.Errorf("check approved elsewhere: %w", err)
	}
	if approvedElsewhere {
		return nil, ErrAlreadyApproved
	}

	if availableSpots <= 0 {
		return nil, ErrNoCapacity
	}

	ok, err := reserveSpot(ctx, tx, request.SessionID)
	if err != nil {
		return nil, fmt.Errorf("reserve spot: %w", err)
	}
	if !ok {
		return nil, ErrNoCapacity
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE requests
		SET status = 'APPROVED', rejection_reason = NULL, updated_at = $1
		WHERE id = $2
	`, now, id)
	if err != nil {
		// Backstop: the partial unique index fires when two professors
		// approve the same student into different sessions concurrently.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyApproved
		}
		return nil, fmt.Errorf("update request status: %w", err)
	}

	// Cascade: the student's other requests are deleted, whatever their
	// status. None of them can be APPROVED, so no capacity is touched.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM requests WHERE student_id = $1 AND id != $2`,
		request.StudentID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("cascade delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	request.Status = models.RequestStatusApproved.String()
	request.RejectionReason = nil
	request.UpdatedAt = now
	return request, nil
}

// Reject performs the PENDING/APPROVED -> REJECTED transition. A previously
// approved request returns its capacity unit before the status flips; both
// writes commit together or not at all.
func (r *requestRepository) Reject(ctx context.Context, id, reason string) (*models.Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	request, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if request.Status == models.RequestStatusRejected.String() {
		return nil, ErrInvalidTransition
	}

	if request.Status == models.RequestStatusApproved.String() {
		if err := releaseSpot(ctx, tx, request.SessionID); err != nil {
			return nil, fmt.Errorf("release spot: %w", err)
		}
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE requests
		SET status = 'REJECTED', rejection_reason = $1, updated_at = $2
		WHERE id = $3
	`, reason, now, id)
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	request.Status = models.RequestStatusRejected.String()
	request.RejectionReason = &reason
	request.UpdatedAt = now
	return request, nil
}

// DeleteReleasing removes a request and returns the prior row. Deleting an
// approved request gives its capacity unit back to the session in the same
// transaction.
func (r *requestRepository) DeleteReleasing(ctx context.Context, id string) (*models.Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	request, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if request.Status == models.RequestStatusApproved.String() {
		if err := releaseSpot(ctx, tx, request.SessionID); err != nil {
			return nil, fmt.Errorf("release spot: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return request, nil
}

func (r *requestRepository) SetStudentFile(ctx context.Context, id string, key *string) error {
	query := `
		UPDATE requests
		SET student_file_key = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	return err
}

func (r *requestRepository) SetReviewerFile(ctx context.Context, id string, key *string) error {
	query := `
		UPDATE requests
		SET reviewer_file_key = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	return err
}
