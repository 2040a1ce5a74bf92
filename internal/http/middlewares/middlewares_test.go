package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mk("A"), mk("B"), mk("C"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRecover())

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestWithSecurityHeadersAndNoStore(t *testing.T) {
	h := Chain(okHandler, WithSecurityHeaders(), WithNoStore())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestWithCORS(t *testing.T) {
	h := Chain(okHandler, WithCORS([]string{"http://localhost:3000/", " "}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestWithRateLimit(t *testing.T) {
	h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(2, time.Minute)}))

	do := func(ip, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1", "/api/signin").Code)
	rec := do("10.0.0.1", "/api/signin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1", "/api/signin")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// otra ruta y otra IP tienen su propio contador
	assert.Equal(t, http.StatusOK, do("10.0.0.1", "/api/signup").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.2", "/api/signin").Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, assert.AnError
}

func TestWithRateLimit_FailsOpen(t *testing.T) {
	h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: failingLimiter{}}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/signin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func newKeys(t *testing.T) (string, *jwt.TokenVerifier) {
	t.Helper()
	sk, pk, err := jwt.GenerateKeyPairPEM()
	require.NoError(t, err)
	ver, err := jwt.NewVerifier(pk)
	require.NoError(t, err)
	return sk, ver
}

func TestRequireAuth(t *testing.T) {
	sk, ver := newKeys(t)
	iss, err := jwt.NewIssuer(sk)
	require.NoError(t, err)

	var got *jwt.Claims
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r.Context())
		assert.Equal(t, got.ID, UserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}), RequireAuth(ver))

	tok, err := iss.Generate(jwt.Claims{ID: 7, DisplayName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "alice@example.com", got.Email)

	expiredIss, err := jwt.NewIssuer(sk, jwt.WithIssuerClock(func() time.Time {
		return time.Now().Add(-8 * 24 * time.Hour)
	}))
	require.NoError(t, err)
	expired, err := expiredIss.Generate(jwt.Claims{ID: 7})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", "TOKEN_MISSING"},
		{"not bearer", "Basic Zm9vOmJhcg==", "TOKEN_MISSING"},
		{"garbage", "Bearer not.a.jwt", "TOKEN_INVALID"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Info("inside")
		http.Error(w, "nope", http.StatusNotFound)
	}), WithRequestID(), WithLogging())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 2, logs.Len())
	inside := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-42", inside["request_id"])
	assert.Equal(t, "/missing", inside["path"])

	done := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, done.Level)
	assert.EqualValues(t, http.StatusNotFound, done.ContextMap()["status"])
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := NewMetrics("test")
	r := chi.NewRouter()
	r.Use(m.WithMetrics())
	r.Get("/api/chat/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chat/"+id, nil))
	}

	n := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/chat/{id}", "418"))
	assert.Equal(t, float64(3), n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/chat/{id}",service="test",status="418"} 3`))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/api/chat/:param/messages", normalizePath("/api/chat/42/messages"))
	assert.Equal(t, "/x/:param", normalizePath("/x/"+strings.Repeat("a", 40)))
}

func TestDBPoolCollector_NilStats(t *testing.T) {
	c := NewDBPoolCollector(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
