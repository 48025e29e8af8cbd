package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type ProfessorRepository interface {
	Create(ctx context.Context, professor *models.Professor) error
	GetByID(ctx context.Context, id string) (*models.Professor, error)
	GetByEmail(ctx context.Context, email string) (*models.Professor, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Professor, int, error)
	Update(ctx context.Context, professor *models.Professor) error
	Exists(ctx context.Context, id string) (bool, error)
}

type professorRepository struct {
	*PostgresRepository
}

func NewProfessorRepository(db *sql.DB, logger zerolog.Logger) ProfessorRepository {
	return &professorRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *professorRepository) Create(ctx context.Context, professor *models.Professor) error {
	query := `
		INSERT INTO professors (id, email, password_hash, full_name, department, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		professor.ID,
		professor.Email,
		professor.PasswordHash,
		professor.FullName,
		professor.Department,
		professor.CreatedAt,
	)

	return err
}

func (r *professorRepository) GetByID(ctx context.Context, id string) (*models.Professor, error) {
	query := `
		SELECT id, email, password_hash, full_name, department, created_at
		FROM professors
		WHERE id = $1
	`

	professor := &models.Professor{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&professor.ID,
		&professor.Email,
		&professor.PasswordHash,
		&professor.FullName,
		&professor.Department,
		&professor.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return professor, err
}

func (r *professorRepository) GetByEmail(ctx context.Context, email string) (*models.Professor, error) {
	query := `
		SELECT id, email, password_hash, full_name, department, created_at
		FROM professors
		WHERE email = $1
	`

	professor := &models.Professor{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&professor.ID,
		&professor.Email,
		&professor.PasswordHash,
		&professor.FullName,
		&professor.Department,
		&professor.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return professor, err
}

func (r *professorRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Professor, int, error) {
	countQuery := `SELECT COUNT(*) FROM professors`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, email, password_hash, full_name, department, created_at
		FROM professors
		ORDER BY full_name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var professors []models.Professor
	for rows.Next() {
		var professor models.Professor
		err := rows.Scan(
			&professor.ID,
			&professor.Email,
			&professor.PasswordHash,
			&professor.FullName,
			&professor.Department,
			&professor.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		professors = append(professors, professor)
	}

	return professors, total, rows.Err()
}

func (r *professorRepository) Update(ctx context.Context, professor *models.Professor) error {
	query := `
		UPDATE professors
		SET full_name = $1, department = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query,
		professor.FullName,
		professor.Department,
		professor.ID,
	)

	return err
}

func (r *professorRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM professors WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
