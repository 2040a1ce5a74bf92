package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellochat/internal/auth"
	"github.com/dropDatabas3/hellochat/internal/chat"
	authctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/auth"
	chatctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/chat"
	healthctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/keys"
	mw "github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/notify"
	"github.com/dropDatabas3/hellochat/internal/rate"
	"github.com/dropDatabas3/hellochat/internal/security/password"
	"github.com/dropDatabas3/hellochat/internal/store/memory"
)

type stack struct {
	chat   http.Handler
	notify http.Handler
	broker *notify.MemoryBroker
	hub    *notify.Hub
}

func newStack(t *testing.T, limiter rate.Limiter) stack {
	t.Helper()
	sk, pk, err := jwt.GenerateKeyPairPEM()
	require.NoError(t, err)
	iss, err := jwt.NewIssuer(sk)
	require.NoError(t, err)
	ver, err := jwt.NewVerifier(pk)
	require.NoError(t, err)

	st := memory.New()
	broker := notify.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	authSvc, err := auth.New(auth.Deps{
		Users:    st,
		Hasher:   password.NewHasher(password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}),
		Issuer:   iss,
		Verifier: ver,
	})
	require.NoError(t, err)
	chatSvc, err := chat.New(chat.Deps{Repo: st, Publisher: broker})
	require.NoError(t, err)

	health := healthctrl.NewController("test", healthctrl.Check{Name: "storage", Ping: st.Ping})
	hub := notify.NewHub()

	return stack{
		chat: NewChatRouter(ChatRouterDeps{
			Port:     8080,
			Auth:     authctrl.NewController(authSvc),
			Chat:     chatctrl.NewController(chatSvc),
			Health:   health,
			Keys:     keysctrl.NewController(iss.PublicKey()),
			Verifier: ver,
			Metrics:  mw.NewMetrics("chat-server"),
			Limiter:  limiter,
		}),
		notify: NewNotifyRouter(NotifyRouterDeps{
			Notify:  notify.NewHandler(hub, ver, notify.HandlerConfig{}),
			Health:  health,
			Metrics: mw.NewMetrics("notify-server"),
		}),
		broker: broker,
		hub:    hub,
	}
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, h http.Handler, name string) (string, int64) {
	t.Helper()
	rec := call(h, http.MethodPost, "/api/signup", "",
		fmt.Sprintf(`{"username":%q,"email":"%s@x.com","password":"hunter42"}`, name, name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token, out.User.ID
}

func TestChatRouter_Root(t *testing.T) {
	s := newStack(t, nil)
	rec := call(s.chat, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "server started at: 8080", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestChatRouter_EndToEnd(t *testing.T) {
	s := newStack(t, nil)
	aliceTok, _ := signup(t, s.chat, "alice")
	_, bobID := signup(t, s.chat, "bob")

	rec := call(s.chat, http.MethodPost, "/api/signin", "", `{"email":"alice@x.com","password":"hunter42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = call(s.chat, http.MethodPost, "/api/chat", aliceTok, fmt.Sprintf(`{"name":"general","members":[%d]}`, bobID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	rec = call(s.chat, http.MethodPost, fmt.Sprintf("/api/chat/%d/messages", c.ID), aliceTok, `{"content":"hola"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(s.chat, http.MethodGet, fmt.Sprintf("/api/chat/%d/messages", c.ID), aliceTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hola"`)
}

func TestChatRouter_Errors(t *testing.T) {
	s := newStack(t, nil)

	rec := call(s.chat, http.MethodGet, "/api/chat", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = call(s.chat, http.MethodGet, "/api/chat", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_INVALID")

	rec = call(s.chat, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ROUTE_NOT_FOUND")

	rec = call(s.chat, http.MethodPut, "/api/signup", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")

	signup(t, s.chat, "alice")
	rec = call(s.chat, http.MethodPost, "/api/signup", "", `{"username":"alice","email":"ALICE@x.com","password":"hunter42"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token")

	rec = call(s.chat, http.MethodPost, "/api/signin", "", `{"email":"alice@x.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestChatRouter_Ops(t *testing.T) {
	s := newStack(t, nil)

	rec := call(s.chat, http.MethodGet, "/.well-known/jwks.json", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"EdDSA"`)

	rec = call(s.chat, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(s.chat, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// una request previa para que haya series con el patrón de chi
	call(s.chat, http.MethodDelete, "/api/chat/42", "", "")
	rec = call(s.chat, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/api/chat/{id}"`)
}

func TestChatRouter_RateLimit(t *testing.T) {
	s := newStack(t, rate.NewMemoryLimiter(1, time.Minute))

	body := `{"email":"ghost@x.com","password":"whatever"}`
	rec := call(s.chat, http.MethodPost, "/api/signin", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(s.chat, http.MethodPost, "/api/signin", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// signup tiene su propio contador (clave ip|path)
	rec = call(s.chat, http.MethodPost, "/api/signup", "", `{"username":"a","email":"a@x.com","password":"hunter42"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNotifyRouter(t *testing.T) {
	s := newStack(t, nil)

	rec := call(s.notify, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = call(s.notify, http.MethodGet, "/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(s.notify, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(s.notify, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatMutationsArePublished(t *testing.T) {
	s := newStack(t, nil)
	aliceTok, aliceID := signup(t, s.chat, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := s.broker.Subscribe(ctx)
	require.NoError(t, err)

	rec := call(s.chat, http.MethodPost, "/api/chat", aliceTok, `{"name":"solo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case ev := <-events:
		assert.Equal(t, notify.ChatCreated, ev.Type)
		assert.Equal(t, []int64{aliceID}, ev.Recipients)
		// y el hub lo entrega al cliente conectado
		c, err := s.hub.Register(aliceID)
		require.NoError(t, err)
		defer s.hub.Unregister(c)
		assert.Equal(t, 1, s.hub.Deliver(ctx, ev))
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}
