package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmunteanu/supervision-service/internal/auth"
	"github.com/dmunteanu/supervision-service/internal/models"
	"github.com/dmunteanu/supervision-service/internal/service"
)

const maxUploadSize = 32 << 20

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req models.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.requestService.Submit(r.Context(), caller, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    request,
	})
}

func (h *Handler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	request, err := h.requestService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, request)
}

func (h *Handler) GetAllRequests(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.requestService.GetAll(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetRequestsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	requests, err := h.requestService.GetByStudent(r.Context(), studentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, requests)
}

func (h *Handler) GetRequestsBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	requests, err := h.requestService.GetBySession(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, requests)
}

func (h *Handler) GetApprovedByProfessor(w http.ResponseWriter, r *http.Request) {
	professorID := chi.URLParam(r, "professorId")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	requests, err := h.requestService.GetApprovedByProfessor(r.Context(), caller, professorID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, requests)
}

func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req models.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.requestService.Decide(r.Context(), caller, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, request)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	request, err := h.requestService.Delete(r.Context(), caller, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, request)
}

func (h *Handler) UploadStudentFile(w http.ResponseWriter, r *http.Request) {
	h.uploadArtifact(w, r, h.requestService.UploadStudentArtifact)
}

func (h *Handler) UploadReviewerFile(w http.ResponseWriter, r *http.Request) {
	h.uploadArtifact(w, r, h.requestService.UploadReviewerArtifact)
}

func (h *Handler) DeleteStudentFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	request, err := h.requestService.DeleteStudentArtifact(r.Context(), caller, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, request)
}

func (h *Handler) DownloadStudentFile(w http.ResponseWriter, r *http.Request) {
	h.downloadArtifact(w, r, service.ArtifactStudent)
}

func (h *Handler) DownloadReviewerFile(w http.ResponseWriter, r *http.Request) {
	h.downloadArtifact(w, r, service.ArtifactReviewer)
}

type uploadFunc func(ctx context.Context, caller models.Identity, id string, content []byte, filename string) (*models.Request, error)

func (h *Handler) uploadArtifact(w http.ResponseWriter, r *http.Request, upload uploadFunc) {
	id := chi.URLParam(r, "id")

	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	request, err := upload(r.Context(), caller, id, content, header.Filename)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, request)
}

func (h *Handler) downloadArtifact(w http.ResponseWriter, r *http.Request, kind service.ArtifactKind) {
	id := chi.URLParam(r, "id")

	reader, size, filename, err := h.requestService.DownloadArtifact(r.Context(), id, kind)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().Err(err).Str("request_id", id).Msg("Failed to stream file")
	}
}
