package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
)

type ProfessorService interface {
	Create(ctx context.Context, req *models.CreateProfessorRequest) (*models.Professor, error)
	GetByID(ctx context.Context, id string) (*models.Professor, error)
	GetByEmail(ctx context.Context, email string) (*models.Professor, error)
	GetAll(ctx context.Context, page, limit int) ([]models.Professor, int, error)
	UpdateProfile(ctx context.Context, caller models.Identity, id string, req *models.UpdateProfessorRequest) (*models.Professor, error)
}

type professorService struct {
	professorRepo repository.ProfessorRepository
	logger        zerolog.Logger
}

func NewProfessorService(professorRepo repository.ProfessorRepository, logger zerolog.Logger) ProfessorService {
	return &professorService{
		professorRepo: professorRepo,
		logger:        logger,
	}
}

func (s *professorService) Create(ctx context.Context, req *models.CreateProfessorRequest) (*models.Professor, error) {
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: email, password and full_name are required", ErrValidation)
	}

	existing, err := s.professorRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	professor := &models.Professor{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Department:   req.Department,
		CreatedAt:    time.Now(),
	}

	if err := s.professorRepo.Create(ctx, professor); err != nil {
		return nil, fmt.Errorf("failed to create professor: %w", err)
	}

	s.logger.Info().
		Str("professor_id", professor.ID).
		Str("email", professor.Email).
		Msg("Professor registered")

	return professor, nil
}

func (s *professorService) GetByID(ctx context.Context, id string) (*models.Professor, error) {
	professor, err := s.professorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get professor: %w", err)
	}
	if professor == nil {
		return nil, fmt.Errorf("professor: %w", repository.ErrNotFound)
	}
	return professor, nil
}

func (s *professorService) GetByEmail(ctx context.Context, email string) (*models.Professor, error) {
	professor, err := s.professorRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get professor by email: %w", err)
	}
	if professor == nil {
		return nil, fmt.Errorf("professor: %w", repository.ErrNotFound)
	}
	return professor, nil
}

func (s *professorService) GetAll(ctx context.Context, page, limit int) ([]models.Professor, int, error) {
	limit, offset := pageToRange(page, limit)
	return s.professorRepo.GetAll(ctx, limit, offset)
}

func (s *professorService) UpdateProfile(ctx context.Context, caller models.Identity, id string, req *models.UpdateProfessorRequest) (*models.Professor, error) {
	if caller.ID != id {
		return nil, fmt.Errorf("%w: cannot update another professor's profile", ErrForbidden)
	}

	professor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		professor.FullName = *req.FullName
	}
	if req.Department != nil {
		professor.Department = *req.Department
	}

	if err := s.professorRepo.Update(ctx, professor); err != nil {
		return nil, fmt.Errorf("failed to update professor: %w", err)
	}

	return professor, nil
}

func pageToRange(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}
