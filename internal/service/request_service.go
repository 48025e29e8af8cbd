package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
	"github.com/dmunteanu/supervision-service/internal/service/integration"
	"github.com/dmunteanu/supervision-service/internal/service/storage"
)

// ArtifactKind selects which of a request's two artifacts an operation
// targets.
type ArtifactKind string

const (
	ArtifactStudent  ArtifactKind = "student"
	ArtifactReviewer ArtifactKind = "reviewer"
)

type RequestService interface {
	Submit(ctx context.Context, caller models.Identity, req *models.SubmitRequestRequest) (*models.Request, error)
	GetByID(ctx context.Context, id string) (*models.Request, error)
	GetAll(ctx context.Context, page, limit int) (*models.RequestsResponse, error)
	GetByStudent(ctx context.Context, studentID string) ([]models.RequestWithDetails, error)
	GetBySession(ctx context.Context, sessionID string) ([]models.RequestWithDetails, error)
	GetApprovedByProfessor(ctx context.Context, caller models.Identity, professorID string) ([]models.RequestWithDetails, error)
	Decide(ctx context.Context, caller models.Identity, id string, req *models.DecideRequestRequest) (*models.Request, error)
	Delete(ctx context.Context, caller models.Identity, id string) (*models.Request, error)
	UploadStudentArtifact(ctx context.Context, caller models.Identity, id string, content []byte, filename string) (*models.Request, error)
	DeleteStudentArtifact(ctx context.Context, caller models.Identity, id string) (*models.Request, error)
	UploadReviewerArtifact(ctx context.Context, caller models.Identity, id string, content []byte, filename string) (*models.Request, error)
	DownloadArtifact(ctx context.Context, id string, kind ArtifactKind) (io.ReadCloser, int64, string, error)
}

type requestService struct {
	requestRepo repository.RequestRepository
	sessionRepo repository.SessionRepository
	studentRepo repository.StudentRepository
	blobs       storage.BlobStorage
	events      integration.RabbitMQClient
	logger      zerolog.Logger
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	sessionRepo repository.SessionRepository,
	studentRepo repository.StudentRepository,
	blobs storage.BlobStorage,
	events integration.RabbitMQClient,
	logger zerolog.Logger,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		sessionRepo: sessionRepo,
		studentRepo: studentRepo,
		blobs:       blobs,
		events:      events,
		logger:      logger,
	}
}

// Submit creates a PENDING request. Submission does not reserve capacity;
// a spot is consumed only when the professor approves, so a session may
// accumulate more pending requests than it has spots.
func (s *requestService) Submit(ctx context.Context, caller models.Identity, req *models.SubmitRequestRequest) (*models.Request, error) {
	if req.StudentID == "" || req.SessionID == "" {
		return nil, fmt.Errorf("%w: student_id and session_id are required", ErrValidation)
	}
	if req.StudentID != caller.ID {
		return nil, fmt.Errorf("%w: cannot submit requests for another student", ErrForbidden)
	}

	studentExists, err := s.studentRepo.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check student existence: %w", err)
	}
	if !studentExists {
		return nil, fmt.Errorf("student: %w", repository.ErrNotFound)
	}

	sessionExists, err := s.sessionRepo.Exists(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	if !sessionExists {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}

	now := time.Now()
	request := &models.Request{
		ID:        uuid.New().String(),
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		Status:    models.RequestStatusPending.String(),
		Message:   req.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info().
		Str("request_id", request.ID).
		Str("student_id", request.StudentID).
		Str("session_id", request.SessionID).
		Msg("Request submitted")

	return request, nil
}

func (s *requestService) GetByID(ctx context.Context, id string) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("request: %w", repository.ErrNotFound)
	}
	return request, nil
}

func (s *requestService) GetAll(ctx context.Context, page, limit int) (*models.RequestsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	requests, total, err := s.requestRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests: %w", err)
	}

	return &models.RequestsResponse{
		Requests: requests,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *requestService) GetByStudent(ctx context.Context, studentID string) ([]models.RequestWithDetails, error) {
	return s.requestRepo.GetByStudent(ctx, studentID)
}

func (s *requestService) GetBySession(ctx context.Context, sessionID string) ([]models.RequestWithDetails, error) {
	return s.requestRepo.GetBySession(ctx, sessionID)
}

func (s *requestService) GetApprovedByProfessor(ctx context.Context, caller models.Identity, professorID string) ([]models.RequestWithDetails, error) {
	if caller.ID != professorID {
		return nil, fmt.Errorf("%w: cannot list another professor's approved students", ErrForbidden)
	}
	return s.requestRepo.GetApprovedByProfessor(ctx, professorID)
}

// Decide moves a request to APPROVED or REJECTED on behalf of the professor
// owning its session. Preconditions are checked in order and the first
// failure aborts with no side effects; the transition itself (capacity
// delta, status write, cascade) is a single transaction in the ledger.
func (s *requestService) Decide(ctx context.Context, caller models.Identity, id string, req *models.DecideRequestRequest) (*models.Request, error) {
	if !models.IsValidRequestStatus(req.Status) || req.Status == models.RequestStatusPending.String() {
		return nil, fmt.Errorf("%w: status must be APPROVED or REJECTED", ErrValidation)
	}

	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	if session.ProfessorID != caller.ID {
		return nil, fmt.Errorf("%w: cannot decide requests for another professor's session", ErrForbidden)
	}

	var decided *models.Request
	switch req.Status {
	case models.RequestStatusApproved.String():
		decided, err = s.requestRepo.Approve(ctx, id)
	case models.RequestStatusRejected.String():
		if req.RejectionReason == "" {
			return nil, fmt.Errorf("%w: rejection_reason is required when rejecting", ErrValidation)
		}
		decided, err = s.requestRepo.Reject(ctx, id, req.RejectionReason)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", id).
		Str("student_id", decided.StudentID).
		Str("session_id", decided.SessionID).
		Str("status", decided.Status).
		Msg("Request decided")

	if s.events != nil {
		event := &models.RequestDecidedEvent{
			RequestID:   decided.ID,
			SessionID:   decided.SessionID,
			StudentID:   decided.StudentID,
			ProfessorID: session.ProfessorID,
			Status:      decided.Status,
			Timestamp:   time.Now().Unix(),
		}
		if err := s.events.PublishRequestDecided(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish request decided event")
		}
	}

	return decided, nil
}

// Delete removes a student's own request. Deleting an approved request
// returns its spot to the session; artifacts are cleaned up best-effort.
func (s *requestService) Delete(ctx context.Context, caller models.Identity, id string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.StudentID != caller.ID {
		return nil, fmt.Errorf("%w: cannot delete another student's request", ErrForbidden)
	}

	deleted, err := s.requestRepo.DeleteReleasing(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, key := range []*string{deleted.StudentFileKey, deleted.ReviewerFileKey} {
		if key == nil || s.blobs == nil {
			continue
		}
		if err := s.blobs.Delete(ctx, *key); err != nil {
			s.logger.Error().Err(err).Str("key", *key).Msg("Failed to delete artifact")
		}
	}

	s.logger.Info().
		Str("request_id", id).
		Str("prior_status", deleted.Status).
		Msg("Request deleted")

	return deleted, nil
}

// UploadStudentArtifact attaches the student's signed application PDF.
// Allowed only on the student's own request and only once it is APPROVED.
func (s *requestService) UploadStudentArtifact(ctx context.Context, caller models.Identity, id string, content []byte, filename string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.StudentID != caller.ID {
		return nil, fmt.Errorf("%w: cannot upload files for another student's request", ErrForbidden)
	}
	if request.Status != models.RequestStatusApproved.String() {
		return nil, fmt.Errorf("%w: files can be uploaded only after approval", ErrInvalidState)
	}

	key, err := s.storeArtifact(ctx, id, ArtifactStudent, content, filename)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.SetStudentFile(ctx, id, &key); err != nil {
		s.deleteBlob(ctx, key)
		return nil, fmt.Errorf("failed to store file reference: %w", err)
	}

	if request.StudentFileKey != nil {
		s.deleteBlob(ctx, *request.StudentFileKey)
	}

	request.StudentFileKey = &key
	return request, nil
}

// DeleteStudentArtifact removes the student's uploaded PDF from an approved
// request.
func (s *requestService) DeleteStudentArtifact(ctx context.Context, caller models.Identity, id string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.StudentID != caller.ID {
		return nil, fmt.Errorf("%w: cannot delete files for another student's request", ErrForbidden)
	}
	if request.Status != models.RequestStatusApproved.String() {
		return nil, fmt.Errorf("%w: files exist only on approved requests", ErrInvalidState)
	}
	if request.StudentFileKey == nil {
		return nil, fmt.Errorf("%w: no file to delete", ErrInvalidState)
	}

	if err := s.requestRepo.SetStudentFile(ctx, id, nil); err != nil {
		return nil, fmt.Errorf("failed to clear file reference: %w", err)
	}

	s.deleteBlob(ctx, *request.StudentFileKey)
	request.StudentFileKey = nil
	return request, nil
}

// UploadReviewerArtifact attaches the professor's counter-signed PDF. The
// student's own file must already be present: the counter-signature cannot
// precede the application it signs.
func (s *requestService) UploadReviewerArtifact(ctx context.Context, caller models.Identity, id string, content []byte, filename string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	if session.ProfessorID != caller.ID {
		return nil, fmt.Errorf("%w: cannot upload files for another professor's session", ErrForbidden)
	}
	if request.Status != models.RequestStatusApproved.String() {
		return nil, fmt.Errorf("%w: files can be uploaded only after approval", ErrInvalidState)
	}
	if request.StudentFileKey == nil {
		return nil, fmt.Errorf("%w: the student must upload their file first", ErrInvalidState)
	}

	key, err := s.storeArtifact(ctx, id, ArtifactReviewer, content, filename)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.SetReviewerFile(ctx, id, &key); err != nil {
		s.deleteBlob(ctx, key)
		return nil, fmt.Errorf("failed to store file reference: %w", err)
	}

	if request.ReviewerFileKey != nil {
		s.deleteBlob(ctx, *request.ReviewerFileKey)
	}

	request.ReviewerFileKey = &key
	return request, nil
}

func (s *requestService) DownloadArtifact(ctx context.Context, id string, kind ArtifactKind) (io.ReadCloser, int64, string, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, "", err
	}

	var key *string
	switch kind {
	case ArtifactStudent:
		key = request.StudentFileKey
	case ArtifactReviewer:
		key = request.ReviewerFileKey
	}
	if key == nil {
		return nil, 0, "", fmt.Errorf("file: %w", repository.ErrNotFound)
	}

	reader, size, err := s.blobs.Download(ctx, *key)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to download file: %w", err)
	}

	return reader, size, filepath.Base(*key), nil
}

func (s *requestService) storeArtifact(ctx context.Context, requestID string, kind ArtifactKind, content []byte, filename string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: file content is empty", ErrValidation)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}
	key := fmt.Sprintf("requests/%s/%s-%d%s", requestID, kind, time.Now().UnixNano(), ext)

	err := s.blobs.Upload(ctx, key, bytes.NewReader(content), int64(len(content)), "application/pdf")
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return key, nil
}

func (s *requestService) deleteBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete artifact")
	}
}
