package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")

	WriteError(rec, ErrInvalidCredentials.WithCause(fmt.Errorf("db down")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
	assert.Equal(t, "rid-1", body["request_id"])
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestWriteError_GenericIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestWithDetail_DoesNotMutate(t *testing.T) {
	e := ErrBadRequest.WithDetail("x")
	assert.Equal(t, "x", e.Detail)
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("cause")
	e := ErrInternalServerError.WithCause(cause)
	assert.ErrorIs(t, e, cause)
}
