package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
)

type fakeRequestRepo struct {
	requests map[string]*models.Request
	sessions *fakeSessionRepo
}

func newFakeRequestRepo(sessions *fakeSessionRepo) *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[string]*models.Request),
		sessions: sessions,
	}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *models.Request) error {
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*models.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) GetAll(_ context.Context, limit, offset int) ([]models.RequestWithDetails, int, error) {
	return nil, len(f.requests), nil
}

func (f *fakeRequestRepo) GetByStudent(_ context.Context, studentID string) ([]models.RequestWithDetails, error) {
	return nil, nil
}

func (f *fakeRequestRepo) GetBySession(_ context.Context, sessionID string) ([]models.RequestWithDetails, error) {
	return nil, nil
}

func (f *fakeRequestRepo) GetApprovedByProfessor(_ context.Context, professorID string) ([]models.RequestWithDetails, error) {
	return nil, nil
}

func (f *fakeRequestRepo) Approve(_ context.Context, id string) (*models.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if request.Status == models.RequestStatusApproved.String() {
		return nil, repository.ErrInvalidTransition
	}

	for otherID, other := range f.requests {
		if otherID != id && other.StudentID == request.StudentID &&
			other.Status == models.RequestStatusApproved.String() {
			return nil, repository.ErrAlreadyApproved
		}
	}

	session, ok := f.sessions.sessions[request.SessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if session.AvailableSpots <= 0 {
		return nil, repository.ErrNoCapacity
	}
	session.AvailableSpots--

	request.Status = models.RequestStatusApproved.String()
	request.RejectionReason = nil
	request.UpdatedAt = time.Now()

	for otherID, other := range f.requests {
		if otherID != id && other.StudentID == request.StudentID {
			delete(f.requests, otherID)
		}
	}

	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) Reject(_ context.Context, id, reason string) (*models.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if request.Status == models.RequestStatusRejected.String() {
		return nil, repository.ErrInvalidTransition
	}
	if request.Status == models.RequestStatusApproved.String() {
		if session, ok := f.sessions.sessions[request.SessionID]; ok && session.AvailableSpots < session.MaxSpots {
			session.AvailableSpots++
		}
	}

	request.Status = models.RequestStatusRejected.String()
	request.RejectionReason = &reason
	request.UpdatedAt = time.Now()

	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) DeleteReleasing(_ context.Context, id string) (*models.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if request.Status == models.RequestStatusApproved.String() {
		if session, ok := f.sessions.sessions[request.SessionID]; ok && session.AvailableSpots < session.MaxSpots {
			session.AvailableSpots++
		}
	}
	delete(f.requests, id)
	return request, nil
}

func (f *fakeRequestRepo) SetStudentFile(_ context.Context, id string, key *string) error {
	request, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	request.StudentFileKey = key
	return nil
}

func (f *fakeRequestRepo) SetReviewerFile(_ context.Context, id string, key *string) error {
	request, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	request.ReviewerFileKey = key
	return nil
}

type fakeStudentRepo struct {
	students map[string]*models.Student
}

func newFakeStudentRepo(ids ...string) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[string]*models.Student)}
	for _, id := range ids {
		repo.students[id] = &models.Student{ID: id}
	}
	return repo
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id string) (*models.Student, error) {
	return f.students[id], nil
}

func (f *fakeStudentRepo) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	for _, student := range f.students {
		if student.Email == email {
			return student, nil
		}
	}
	return nil, nil
}

func (f *fakeStudentRepo) GetAll(_ context.Context, limit, offset int) ([]models.Student, int, error) {
	return nil, len(f.students), nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.students[id]
	return ok, nil
}

type fakeBlobStorage struct {
	objects map[string][]byte
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{objects: make(map[string][]byte)}
}

func (f *fakeBlobStorage) Upload(_ context.Context, key string, data io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = content
	return nil
}

func (f *fakeBlobStorage) Download(_ context.Context, key string) (io.ReadCloser, int64, error) {
	content, ok := f.objects[key]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), int64(len(content)), nil
}

func (f *fakeBlobStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

type requestServiceHarness struct {
	svc      RequestService
	requests *fakeRequestRepo
	sessions *fakeSessionRepo
	blobs    *fakeBlobStorage
}

func newRequestServiceHarness() *requestServiceHarness {
	sessions := newFakeSessionRepo()
	requests := newFakeRequestRepo(sessions)
	blobs := newFakeBlobStorage()
	students := newFakeStudentRepo("stu-1", "stu-2", "stu-3")
	return &requestServiceHarness{
		svc:      NewRequestService(requests, sessions, students, blobs, nil, zerolog.Nop()),
		requests: requests,
		sessions: sessions,
		blobs:    blobs,
	}
}

func (h *requestServiceHarness) addSession(id, professorID string, maxSpots, availableSpots int) {
	start, end := sessionWindow(0)
	h.sessions.sessions[id] = &models.Session{
		ID:             id,
		ProfessorID:    professorID,
		StartTime:      start,
		EndTime:        end,
		MaxSpots:       maxSpots,
		AvailableSpots: availableSpots,
		TermID:         "term-1",
	}
}

func (h *requestServiceHarness) addRequest(id, studentID, sessionID, status string) *models.Request {
	now := time.Now()
	request := &models.Request{
		ID:        id,
		StudentID: studentID,
		SessionID: sessionID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.requests.requests[id] = request
	return request
}

var (
	studentCaller   = models.Identity{ID: "stu-1", Role: models.RoleStudent}
	professorCaller = models.Identity{ID: "prof-1", Role: models.RoleProfessor}
)

func TestRequestServiceSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)

		request, err := h.svc.Submit(ctx, studentCaller, &models.SubmitRequestRequest{
			StudentID: "stu-1",
			SessionID: "sess-1",
			Message:   "please",
		})

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending.String(), request.Status)
		// Submission does not consume capacity.
		assert.Equal(t, 2, h.sessions.sessions["sess-1"].AvailableSpots)
	})

	t.Run("rejects submitting for another student", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)

		_, err := h.svc.Submit(ctx, studentCaller, &models.SubmitRequestRequest{
			StudentID: "stu-2",
			SessionID: "sess-1",
		})

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects unknown session", func(t *testing.T) {
		h := newRequestServiceHarness()

		_, err := h.svc.Submit(ctx, studentCaller, &models.SubmitRequestRequest{
			StudentID: "stu-1",
			SessionID: "missing",
		})

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("allows more pending requests than spots", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 1, 1)

		for _, studentID := range []string{"stu-1", "stu-2", "stu-3"} {
			caller := models.Identity{ID: studentID, Role: models.RoleStudent}
			_, err := h.svc.Submit(ctx, caller, &models.SubmitRequestRequest{
				StudentID: studentID,
				SessionID: "sess-1",
			})
			require.NoError(t, err)
		}

		assert.Len(t, h.requests.requests, 3)
	})
}

func TestRequestServiceDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve consumes a spot and cascades", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addSession("sess-2", "prof-2", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())
		h.addRequest("req-2", "stu-1", "sess-2", models.RequestStatusPending.String())

		decided, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved.String(), decided.Status)
		assert.Equal(t, 1, h.sessions.sessions["sess-1"].AvailableSpots)
		// The student's other request is gone.
		assert.NotContains(t, h.requests.requests, "req-2")
	})

	t.Run("approve on full session", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 1, 0)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		assert.ErrorIs(t, err, repository.ErrNoCapacity)
	})

	t.Run("approve when approved elsewhere", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addSession("sess-2", "prof-2", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())
		h.addRequest("req-2", "stu-1", "sess-2", models.RequestStatusApproved.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		assert.ErrorIs(t, err, repository.ErrAlreadyApproved)
	})

	t.Run("re-approving an approved request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	})

	t.Run("approving a rejected request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusRejected.String())

		decided, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved.String(), decided.Status)
		assert.Nil(t, decided.RejectionReason)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusRejected.String(),
		})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejecting an approved request releases the spot", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		decided, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status:          models.RequestStatusRejected.String(),
			RejectionReason: "schedule conflict",
		})

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusRejected.String(), decided.Status)
		assert.Equal(t, 2, h.sessions.sessions["sess-1"].AvailableSpots)
	})

	t.Run("re-rejecting a rejected request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusRejected.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status:          models.RequestStatusRejected.String(),
			RejectionReason: "again",
		})

		assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	})

	t.Run("rejects deciding another professor's session", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-2", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusApproved.String(),
		})

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects PENDING as a target status", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.Decide(ctx, professorCaller, "req-1", &models.DecideRequestRequest{
			Status: models.RequestStatusPending.String(),
		})

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRequestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting an approved request releases the spot", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		request := h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())
		key := "requests/req-1/student-1.pdf"
		h.blobs.objects[key] = []byte("pdf")
		request.StudentFileKey = &key

		deleted, err := h.svc.Delete(ctx, studentCaller, "req-1")

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved.String(), deleted.Status)
		assert.Equal(t, 2, h.sessions.sessions["sess-1"].AvailableSpots)
		assert.NotContains(t, h.blobs.objects, key)
	})

	t.Run("rejects deleting another student's request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-2", "sess-1", models.RequestStatusPending.String())

		_, err := h.svc.Delete(ctx, studentCaller, "req-1")

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRequestServiceArtifacts(t *testing.T) {
	ctx := context.Background()
	content := []byte("%PDF-1.4")

	t.Run("student upload requires approval", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 2)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusPending.String())

		_, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("student upload on own approved request", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		request, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")

		require.NoError(t, err)
		require.NotNil(t, request.StudentFileKey)
		assert.Contains(t, h.blobs.objects, *request.StudentFileKey)
	})

	t.Run("student upload by another student", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-2", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("reviewer upload before the student file", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadReviewerArtifact(ctx, professorCaller, "req-1", content, "signed.pdf")

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("reviewer upload after the student file", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")
		require.NoError(t, err)

		request, err := h.svc.UploadReviewerArtifact(ctx, professorCaller, "req-1", content, "signed.pdf")

		require.NoError(t, err)
		require.NotNil(t, request.ReviewerFileKey)
		assert.Contains(t, h.blobs.objects, *request.ReviewerFileKey)
	})

	t.Run("reviewer upload by another professor", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-2", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadReviewerArtifact(ctx, professorCaller, "req-1", content, "signed.pdf")

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("delete student artifact without a file", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.DeleteStudentArtifact(ctx, studentCaller, "req-1")

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("delete student artifact removes the blob", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		uploaded, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")
		require.NoError(t, err)
		key := *uploaded.StudentFileKey

		request, err := h.svc.DeleteStudentArtifact(ctx, studentCaller, "req-1")

		require.NoError(t, err)
		assert.Nil(t, request.StudentFileKey)
		assert.NotContains(t, h.blobs.objects, key)
	})

	t.Run("empty upload", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", nil, "application.pdf")

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("download round trip", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, err := h.svc.UploadStudentArtifact(ctx, studentCaller, "req-1", content, "application.pdf")
		require.NoError(t, err)

		reader, size, filename, err := h.svc.DownloadArtifact(ctx, "req-1", ArtifactStudent)
		require.NoError(t, err)
		defer reader.Close()

		downloaded, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, content, downloaded)
		assert.Equal(t, int64(len(content)), size)
		assert.NotEmpty(t, filename)
	})

	t.Run("download without a file", func(t *testing.T) {
		h := newRequestServiceHarness()
		h.addSession("sess-1", "prof-1", 2, 1)
		h.addRequest("req-1", "stu-1", "sess-1", models.RequestStatusApproved.String())

		_, _, _, err := h.svc.DownloadArtifact(ctx, "req-1", ArtifactReviewer)

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
