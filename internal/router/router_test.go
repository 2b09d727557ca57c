package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/gyeo009/lookback-Backend/internal/auth"
)

type stubLogin struct {
	calls int
}

func (s *stubLogin) Login(ctx context.Context, code string) (*auth.Result, error) {
	s.calls++
	return &auth.Result{IsNewUser: true, Email: "a@x.com", Name: "A"}, nil
}

func newTestRouter(t *testing.T, svc auth.LoginService) *Router {
	t.Helper()
	rt := New(&Dependencies{
		AuthHandler:    auth.NewHandler(svc),
		AllowedOrigins: []string{"https://lookback.kr"},
	})
	t.Cleanup(rt.Close)
	return rt
}

// TestHealthEndpoint tests the /health endpoint to ensure it returns HTTP 200 OK and the expected body.
func TestHealthEndpoint(t *testing.T) {
	rt := newTestRouter(t, &stubLogin{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

// TestVersionEndpoint tests the /version endpoint to ensure it returns HTTP 200 OK and the correct Content-Type.
func TestVersionEndpoint(t *testing.T) {
	rt := newTestRouter(t, &stubLogin{})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, Version, body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	rt := newTestRouter(t, &stubLogin{})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestLoginRoute(t *testing.T) {
	svc := &stubLogin{}
	rt := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"code":"abc123"}`))
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"success":true,"isNewUser":true,"user":{"email":"a@x.com","name":"A","picture":""}}`, w.Body.String())
	assert.Equal(t, 1, svc.calls)
}

func TestLoginRoute_MethodNotAllowed(t *testing.T) {
	svc := &stubLogin{}
	rt := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, svc.calls)
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	defer rl.Stop()

	h := rl.LimitByIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, lang string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		req.Header.Set("Accept-Language", lang)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1235", "").Code)

	w := send("10.0.0.1:1236", "en")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")

	// separate bucket per ip
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234", "").Code)

	assert.Equal(t, http.StatusInternalServerError, send("not-an-addr", "").Code)
}
