package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestFromError_MapsKinds(t *testing.T) {
	tests := []struct {
		kind   apperr.Kind
		status int
		code   string
	}{
		{apperr.Validation, http.StatusBadRequest, CodeInvalidInput},
		{apperr.NotFound, http.StatusNotFound, CodeNotFound},
		{apperr.Conflict, http.StatusBadRequest, CodeDuplicateEntry},
		{apperr.Mismatch, http.StatusBadRequest, CodeOTPMismatch},
		{apperr.Expired, http.StatusBadRequest, CodeOTPExpired},
		{apperr.InvalidCredential, http.StatusUnauthorized, CodeInvalidCredentials},
		{apperr.Unverified, http.StatusUnauthorized, CodeEmailNotVerified},
		{apperr.Unauthenticated, http.StatusUnauthorized, CodeUnauthorized},
		{apperr.Forbidden, http.StatusForbidden, CodeForbidden},
		{apperr.RateLimited, http.StatusTooManyRequests, CodeRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			err := fmt.Errorf("op: %w", apperr.E(tt.kind, "something happened"))

			FromError(rr, req, err)

			assert.Equal(t, tt.status, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "something happened", body.Error)
		})
	}
}

func TestFromError_InternalHidesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	FromError(rr, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, CodeInternalError, body.Code)
	assert.NotContains(t, body.Error, "password")
}

func TestWriteJSON_NilBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())
}
