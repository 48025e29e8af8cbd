package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/dmunteanu/supervision-service/internal/models"
)

func (h *Handler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	term, err := h.termService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    term,
	})
}

func (h *Handler) GetAllTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.termService.GetAll(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, terms)
}
