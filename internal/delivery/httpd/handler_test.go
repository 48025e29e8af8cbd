package httpd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmunteanu/supervision-service/internal/repository"
	"github.com/dmunteanu/supervision-service/internal/service"
)

func TestHandleServiceError(t *testing.T) {
	h := &Handler{logger: zerolog.Nop()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", service.ErrValidation, http.StatusBadRequest},
		{"invalid state", service.ErrInvalidState, http.StatusBadRequest},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"overlapping", service.ErrOverlapping, http.StatusConflict},
		{"shrink below committed", service.ErrShrinkBelowCommitted, http.StatusConflict},
		{"already approved", repository.ErrAlreadyApproved, http.StatusConflict},
		{"no capacity", repository.ErrNoCapacity, http.StatusConflict},
		{"invalid transition", repository.ErrInvalidTransition, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.handleServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body, "error")
			assert.Contains(t, body, "message")
		})
	}

	t.Run("wrapped errors map the same", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handleServiceError(rec, fmt.Errorf("session: %w", repository.ErrNotFound))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetIntQueryParam(t *testing.T) {
	newRequest := func(query string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	}

	assert.Equal(t, 3, getIntQueryParam(newRequest("page=3"), "page", 1))
	assert.Equal(t, 1, getIntQueryParam(newRequest(""), "page", 1))
	assert.Equal(t, 1, getIntQueryParam(newRequest("page=abc"), "page", 1))
}
