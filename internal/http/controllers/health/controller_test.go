package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	c := NewController("1.2.3", Check{Name: "storage", Ping: func(context.Context) error { return errors.New("down") }})
	rec := httptest.NewRecorder()
	c.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	ok := Check{Name: "storage", Ping: func(context.Context) error { return nil }}
	bad := Check{Name: "broker", Ping: func(context.Context) error { return errors.New("no route") }}

	rec := httptest.NewRecorder()
	NewController("v1", ok).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-Service-Version"))

	rec = httptest.NewRecorder()
	NewController("v1", ok, bad).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, map[string]string{"storage": "up", "broker": "down"}, resp.Components)
}
