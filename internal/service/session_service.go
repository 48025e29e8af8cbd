package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
	"github.com/dmunteanu/supervision-service/internal/service/integration"
)

type SessionService interface {
	Create(ctx context.Context, caller models.Identity, req *models.CreateSessionRequest) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetAll(ctx context.Context, page, limit int) (*models.SessionsResponse, error)
	GetByProfessor(ctx context.Context, professorID string) ([]models.Session, error)
	Update(ctx context.Context, caller models.Identity, id string, req *models.UpdateSessionRequest) (*models.Session, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	termRepo    repository.TermRepository
	events      integration.RabbitMQClient
	logger      zerolog.Logger
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	termRepo repository.TermRepository,
	events integration.RabbitMQClient,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		termRepo:    termRepo,
		events:      events,
		logger:      logger,
	}
}

func (s *sessionService) Create(ctx context.Context, caller models.Identity, req *models.CreateSessionRequest) (*models.Session, error) {
	if req.ProfessorID == "" || req.TermID == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: professor_id, term_id, start_time and end_time are required", ErrValidation)
	}
	if req.ProfessorID != caller.ID {
		return nil, fmt.Errorf("%w: cannot create sessions for another professor", ErrForbidden)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	if req.MaxSpots < 1 {
		return nil, fmt.Errorf("%w: max_spots must be at least 1", ErrValidation)
	}

	termExists, err := s.termRepo.Exists(ctx, req.TermID)
	if err != nil {
		return nil, fmt.Errorf("failed to check term existence: %w", err)
	}
	if !termExists {
		return nil, fmt.Errorf("term: %w", repository.ErrNotFound)
	}

	if err := s.checkOverlap(ctx, req.ProfessorID, req.StartTime, req.EndTime, ""); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:             uuid.New().String(),
		ProfessorID:    req.ProfessorID,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		MaxSpots:       req.MaxSpots,
		AvailableSpots: req.MaxSpots,
		TermID:         req.TermID,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Str("professor_id", session.ProfessorID).
		Int("max_spots", session.MaxSpots).
		Msg("Session created")

	if s.events != nil {
		event := &models.SessionCreatedEvent{
			SessionID:   session.ID,
			ProfessorID: session.ProfessorID,
			StartTime:   session.StartTime.Unix(),
			EndTime:     session.EndTime.Unix(),
			MaxSpots:    session.MaxSpots,
			Timestamp:   time.Now().Unix(),
		}
		if err := s.events.PublishSessionCreated(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish session created event")
		}
	}

	return session, nil
}

func (s *sessionService) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	return session, nil
}

func (s *sessionService) GetAll(ctx context.Context, page, limit int) (*models.SessionsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	sessions, total, err := s.sessionRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	return &models.SessionsResponse{
		Sessions: sessions,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *sessionService) GetByProfessor(ctx context.Context, professorID string) ([]models.Session, error) {
	return s.sessionRepo.GetByProfessor(ctx, professorID)
}

// Update edits a session's description, window or capacity. The window is
// re-validated against the professor's other sessions, and max_spots can
// never drop below the spots already granted to approved requests.
func (s *sessionService) Update(ctx context.Context, caller models.Identity, id string, req *models.UpdateSessionRequest) (*models.Session, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ProfessorID != caller.ID {
		return nil, fmt.Errorf("%w: cannot edit another professor's session", ErrForbidden)
	}

	newStart := existing.StartTime
	newEnd := existing.EndTime
	if req.StartTime != nil {
		newStart = *req.StartTime
	}
	if req.EndTime != nil {
		newEnd = *req.EndTime
	}
	if !newEnd.After(newStart) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}

	if req.StartTime != nil || req.EndTime != nil {
		if err := s.checkOverlap(ctx, existing.ProfessorID, newStart, newEnd, id); err != nil {
			return nil, err
		}
	}

	updated, err := s.sessionRepo.UpdateGuarded(ctx, id, func(session *models.Session) error {
		if req.Description != nil {
			session.Description = *req.Description
		}
		session.StartTime = newStart
		session.EndTime = newEnd

		if req.MaxSpots != nil {
			granted := session.GrantedSpots()
			if *req.MaxSpots < 1 {
				return fmt.Errorf("%w: max_spots must be at least 1", ErrValidation)
			}
			if *req.MaxSpots < granted {
				return fmt.Errorf("%w: %d spots already granted", ErrShrinkBelowCommitted, granted)
			}
			session.MaxSpots = *req.MaxSpots
			session.AvailableSpots = *req.MaxSpots - granted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", id).
		Msg("Session updated")

	return updated, nil
}

// checkOverlap scans the professor's sessions for a half-open interval
// intersection with the candidate window. excludeID skips the session being
// edited.
func (s *sessionService) checkOverlap(ctx context.Context, professorID string, start, end time.Time, excludeID string) error {
	sessions, err := s.sessionRepo.GetByProfessor(ctx, professorID)
	if err != nil {
		return fmt.Errorf("failed to get professor sessions: %w", err)
	}

	for _, existing := range sessions {
		if existing.ID == excludeID {
			continue
		}
		if models.Overlaps(start, end, existing.StartTime, existing.EndTime) {
			return fmt.Errorf("%w: conflicts with session %s", ErrOverlapping, existing.ID)
		}
	}

	return nil
}
