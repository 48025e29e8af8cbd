package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/auth"
	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/repository"
	"github.com/dmunteanu/supervision-service/internal/service"
)

type Handler struct {
	authService      service.AuthService
	professorService service.ProfessorService
	studentService   service.StudentService
	termService      service.TermService
	sessionService   service.SessionService
	requestService   service.RequestService
	tokens           *auth.Manager
	logger           zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	professorService service.ProfessorService,
	studentService service.StudentService,
	termService service.TermService,
	sessionService service.SessionService,
	requestService service.RequestService,
	tokens *auth.Manager,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:      authService,
		professorService: professorService,
		studentService:   studentService,
		termService:      termService,
		sessionService:   sessionService,
		requestService:   requestService,
		tokens:           tokens,
		logger:           logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	authenticated := auth.Authenticate(h.tokens)
	professorOnly := auth.RequireRole(models.RoleProfessor)
	studentOnly := auth.RequireRole(models.RoleStudent)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", h.Login)

		api.Route("/professors", func(r chi.Router) {
			r.Post("/", h.CreateProfessor)
			r.Get("/", h.GetAllProfessors)
			r.Get("/by-email", h.GetProfessorByEmail)
			r.Get("/{id}", h.GetProfessorByID)
			r.With(authenticated, professorOnly).Put("/{id}", h.UpdateProfessor)
		})

		api.Route("/students", func(r chi.Router) {
			r.Post("/", h.CreateStudent)
			r.Get("/", h.GetAllStudents)
			r.Get("/by-email", h.GetStudentByEmail)
			r.Get("/{id}", h.GetStudentByID)
			r.With(authenticated, studentOnly).Put("/{id}", h.UpdateStudent)
		})

		api.Route("/terms", func(r chi.Router) {
			r.Post("/", h.CreateTerm)
			r.Get("/", h.GetAllTerms)
		})

		api.Route("/sessions", func(r chi.Router) {
			r.With(authenticated, professorOnly).Post("/", h.CreateSession)
			r.Get("/", h.GetAllSessions)
			r.Get("/professor/{professorId}", h.GetSessionsByProfessor)
			r.Get("/{id}", h.GetSessionByID)
			r.With(authenticated, professorOnly).Put("/{id}", h.UpdateSession)
		})

		api.Route("/requests", func(r chi.Router) {
			r.With(authenticated, studentOnly).Post("/", h.SubmitRequest)
			r.Get("/", h.GetAllRequests)
			r.Get("/student/{studentId}", h.GetRequestsByStudent)
			r.Get("/session/{sessionId}", h.GetRequestsBySession)
			r.With(authenticated, professorOnly).Get("/professor/{professorId}/approved", h.GetApprovedByProfessor)
			r.Get("/{id}", h.GetRequestByID)
			r.With(authenticated, professorOnly).Put("/{id}", h.DecideRequest)
			r.With(authenticated, studentOnly).Delete("/{id}", h.DeleteRequest)

			r.With(authenticated, studentOnly).Post("/{id}/student-file", h.UploadStudentFile)
			r.With(authenticated, studentOnly).Delete("/{id}/student-file", h.DeleteStudentFile)
			r.Get("/{id}/student-file", h.DownloadStudentFile)
			r.With(authenticated, professorOnly).Post("/{id}/reviewer-file", h.UploadReviewerFile)
			r.Get("/{id}/reviewer-file", h.DownloadReviewerFile)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "supervision-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError translates engine failure kinds into status codes.
// Anything unrecognized is a transient or internal failure and surfaces as
// a 500 without leaking details.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrOverlapping),
		errors.Is(err, service.ErrShrinkBelowCommitted),
		errors.Is(err, repository.ErrAlreadyApproved),
		errors.Is(err, repository.ErrNoCapacity),
		errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
