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

type StudentService interface {
	Create(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	GetAll(ctx context.Context, page, limit int) ([]models.Student, int, error)
	UpdateProfile(ctx context.Context, caller models.Identity, id string, req *models.UpdateStudentRequest) (*models.Student, error)
}

type studentService struct {
	studentRepo repository.StudentRepository
	logger      zerolog.Logger
}

func NewStudentService(studentRepo repository.StudentRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		studentRepo: studentRepo,
		logger:      logger,
	}
}

func (s *studentService) Create(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: email, password and full_name are required", ErrValidation)
	}

	existing, err := s.studentRepo.GetByEmail(ctx, req.Email)
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

	student := &models.Student{
		ID:             uuid.New().String(),
		Email:          req.Email,
		PasswordHash:   string(hash),
		FullName:       req.FullName,
		Faculty:        req.Faculty,
		Specialization: req.Specialization,
		StudyGroup:     req.StudyGroup,
		CreatedAt:      time.Now(),
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info().
		Str("student_id", student.ID).
		Str("email", student.Email).
		Msg("Student registered")

	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student: %w", repository.ErrNotFound)
	}
	return student, nil
}

func (s *studentService) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	student, err := s.studentRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student: %w", repository.ErrNotFound)
	}
	return student, nil
}

func (s *studentService) GetAll(ctx context.Context, page, limit int) ([]models.Student, int, error) {
	limit, offset := pageToRange(page, limit)
	return s.studentRepo.GetAll(ctx, limit, offset)
}

func (s *studentService) UpdateProfile(ctx context.Context, caller models.Identity, id string, req *models.UpdateStudentRequest) (*models.Student, error) {
	if caller.ID != id {
		return nil, fmt.Errorf("%w: cannot update another student's profile", ErrForbidden)
	}

	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Faculty != nil {
		student.Faculty = *req.Faculty
	}
	if req.Specialization != nil {
		student.Specialization = *req.Specialization
	}
	if req.StudyGroup != nil {
		student.StudyGroup = *req.StudyGroup
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	return student, nil
}
