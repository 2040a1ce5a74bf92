package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadJSON(t *testing.T) {
	type in struct {
		Email string `json:"email"`
	}
	tests := []struct {
		name   string
		ct     string
		body   string
		ok     bool
		status int
		code   string
	}{
		{"ok", "application/json", `{"email":"a@b.c","extra":1}`, true, http.StatusOK, ""},
		{"charset", "application/json; charset=utf-8", `{"email":"a@b.c"}`, true, http.StatusOK, ""},
		{"wrong content type", "text/plain", `{"email":"a@b.c"}`, false, http.StatusBadRequest, "INVALID_JSON"},
		{"empty", "application/json", ``, false, http.StatusBadRequest, "INVALID_JSON"},
		{"broken", "application/json", `{"email":`, false, http.StatusBadRequest, "INVALID_JSON"},
		{"too large", "application/json", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, false, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()

			var v in
			ok := ReadJSON(rec, req, &v)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			} else {
				assert.Equal(t, "a@b.c", v.Email)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	for _, tc := range []struct{ header, want string }{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"BEARER abc", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
		{"Bearerabc", ""},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tc.header)
		got, ok := BearerToken(req)
		assert.Equal(t, tc.want, got, tc.header)
		assert.Equal(t, tc.want != "", ok, tc.header)
	}
}

func TestStreamToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=q", nil)
	tok, ok := StreamToken(req)
	assert.True(t, ok)
	assert.Equal(t, "q", tok)

	req.Header.Set("Authorization", "Bearer h")
	tok, _ = StreamToken(req)
	assert.Equal(t, "h", tok, "header gana sobre query")

	_, ok = StreamToken(httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.False(t, ok)
}
