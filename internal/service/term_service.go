package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
)

type TermService interface {
	Create(ctx context.Context, req *models.CreateTermRequest) (*models.Term, error)
	GetAll(ctx context.Context) ([]models.Term, error)
}

type termService struct {
	termRepo repository.TermRepository
	logger   zerolog.Logger
}

func NewTermService(termRepo repository.TermRepository, logger zerolog.Logger) TermService {
	return &termService{
		termRepo: termRepo,
		logger:   logger,
	}
}

func (s *termService) Create(ctx context.Context, req *models.CreateTermRequest) (*models.Term, error) {
	if req.Name == "" || req.AcademicYear == "" {
		return nil, fmt.Errorf("%w: name and academic_year are required", ErrValidation)
	}
	if !models.IsValidTermType(req.Type) {
		return nil, fmt.Errorf("%w: type must be SUMMER, AUTUMN or WINTER", ErrValidation)
	}

	term := &models.Term{
		ID:           uuid.New().String(),
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		Type:         req.Type,
		CreatedAt:    time.Now(),
	}

	if err := s.termRepo.Create(ctx, term); err != nil {
		return nil, fmt.Errorf("failed to create term: %w", err)
	}

	s.logger.Info().
		Str("term_id", term.ID).
		Str("name", term.Name).
		Msg("University term created")

	return term, nil
}

func (s *termService) GetAll(ctx context.Context) ([]models.Term, error) {
	return s.termRepo.GetAll(ctx)
}
