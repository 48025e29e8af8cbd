package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type TermRepository interface {
	Create(ctx context.Context, term *models.Term) error
	GetByID(ctx context.Context, id string) (*models.Term, error)
	GetAll(ctx context.Context) ([]models.Term, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type termRepository struct {
	*PostgresRepository
}

func NewTermRepository(db *sql.DB, logger zerolog.Logger) TermRepository {
	return &termRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *termRepository) Create(ctx context.Context, term *models.Term) error {
	query := `
		INSERT INTO university_terms (id, name, academic_year, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		term.ID,
		term.Name,
		term.AcademicYear,
		term.Type,
		term.CreatedAt,
	)

	return err
}

func (r *termRepository) GetByID(ctx context.Context, id string) (*models.Term, error) {
	query := `
		SELECT id, name, academic_year, type, created_at
		FROM university_terms
		WHERE id = $1
	`

	term := &models.Term{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&term.ID,
		&term.Name,
		&term.AcademicYear,
		&term.Type,
		&term.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return term, err
}

func (r *termRepository) GetAll(ctx context.Context) ([]models.Term, error) {
	query := `
		SELECT id, name, academic_year, type, created_at
		FROM university_terms
		ORDER BY academic_year DESC, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		var term models.Term
		err := rows.Scan(
			&term.ID,
			&term.Name,
			&term.AcademicYear,
			&term.Type,
			&term.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	return terms, rows.Err()
}

func (r *termRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM university_terms WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
