package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmunteanu/supervision-service/internal/auth"
	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

type authService struct {
	professorRepo repository.ProfessorRepository
	studentRepo   repository.StudentRepository
	tokens        *auth.Manager
	logger        zerolog.Logger
}

func NewAuthService(
	professorRepo repository.ProfessorRepository,
	studentRepo repository.StudentRepository,
	tokens *auth.Manager,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		professorRepo: professorRepo,
		studentRepo:   studentRepo,
		tokens:        tokens,
		logger:        logger,
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	switch req.Role {
	case models.RoleProfessor:
		professor, err := s.professorRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up professor: %w", err)
		}
		if professor == nil {
			return nil, ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(professor.PasswordHash), []byte(req.Password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return s.issue(models.Identity{ID: professor.ID, Email: professor.Email, Role: models.RoleProfessor}, professor)

	case models.RoleStudent:
		student, err := s.studentRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up student: %w", err)
		}
		if student == nil {
			return nil, ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return s.issue(models.Identity{ID: student.ID, Email: student.Email, Role: models.RoleStudent}, student)

	default:
		return nil, fmt.Errorf("%w: role must be PROFESSOR or STUDENT", ErrValidation)
	}
}

func (s *authService) issue(identity models.Identity, user interface{}) (*models.LoginResponse, error) {
	token, err := s.tokens.GenerateToken(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info().
		Str("user_id", identity.ID).
		Str("role", identity.Role).
		Msg("User logged in")

	return &models.LoginResponse{
		Token: token,
		Role:  identity.Role,
		User:  user,
	}, nil
}
