package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Student, int, error)
	Update(ctx context.Context, student *models.Student) error
	Exists(ctx context.Context, id string) (bool, error)
}

type studentRepository struct {
	*PostgresRepository
}

func NewStudentRepository(db *sql.DB, logger zerolog.Logger) StudentRepository {
	return &studentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (id, email, password_hash, full_name, faculty, specialization, study_group, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		student.ID,
		student.Email,
		student.PasswordHash,
		student.FullName,
		student.Faculty,
		student.Specialization,
		student.StudyGroup,
		student.CreatedAt,
	)

	return err
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `
		SELECT id, email, password_hash, full_name, faculty, specialization, study_group, created_at
		FROM students
		WHERE id = $1
	`

	student := &models.Student{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID,
		&student.Email,
		&student.PasswordHash,
		&student.FullName,
		&student.Faculty,
		&student.Specialization,
		&student.StudyGroup,
		&student.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return student, err
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `
		SELECT id, email, password_hash, full_name, faculty, specialization, study_group, created_at
		FROM students
		WHERE email = $1
	`

	student := &models.Student{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&student.ID,
		&student.Email,
		&student.PasswordHash,
		&student.FullName,
		&student.Faculty,
		&student.Specialization,
		&student.StudyGroup,
		&student.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return student, err
}

func (r *studentRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, email, password_hash, full_name, faculty, specialization, study_group, created_at
		FROM students
		ORDER BY full_name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var student models.Student
		err := rows.Scan(
			&student.ID,
			&student.Email,
			&student.PasswordHash,
			&student.FullName,
			&student.Faculty,
			&student.Specialization,
			&student.StudyGroup,
			&student.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, student)
	}

	return students, total, rows.Err()
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET full_name = $1, faculty = $2, specialization = $3, study_group = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		student.FullName,
		student.Faculty,
		student.Specialization,
		student.StudyGroup,
		student.ID,
	)

	return err
}

func (r *studentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
