package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmunteanu/supervision-service/internal/auth"
	"github.com/dmunteanu/supervision-service/internal/models"
)

func (h *Handler) CreateProfessor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfessorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	professor, err := h.professorService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    professor,
	})
}

func (h *Handler) GetProfessorByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	professor, err := h.professorService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, professor)
}

func (h *Handler) GetProfessorByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	professor, err := h.professorService.GetByEmail(r.Context(), email)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, professor)
}

func (h *Handler) GetAllProfessors(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	professors, total, err := h.professorService.GetAll(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"professors": professors,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

func (h *Handler) UpdateProfessor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req models.UpdateProfessorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	professor, err := h.professorService.UpdateProfile(r.Context(), caller, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, professor)
}
