//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/security"
	"go-auth-service/internal/service"
	"go-auth-service/pkg/validate"
)

type testEnv struct {
	server   *httptest.Server
	users    *repository.MemoryUserStore
	sessions *repository.MemorySessionStore
}

// newTestEnv wires the full HTTP stack over in-memory stores, mirroring the
// construction in internal/app.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	audit := repository.NewMemoryAuditStore()

	hasher := security.NewPasswordHasher(4)
	tokens, err := security.NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	auditService := service.NewAuditService(audit)
	sessionService := service.NewSessionService(sessions, users, auditService, time.Hour)
	authService := service.NewAuthService(users, sessionService, hasher, tokens, auditService)

	validator := validate.New()
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, validator)
	sessionHandler := handler.NewSessionHandler(authService, validator, handler.CookieConfig{
		Name:     "session_id",
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		TTL:      time.Hour,
	})

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   15 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	healthHandler := handler.NewHealthHandler(healthyStore{})

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, sessionHandler, healthHandler))
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, sessions: sessions}
}

// healthyStore stands in for the database pool behind /health.
type healthyStore struct{}

func (healthyStore) Health(context.Context) error { return nil }

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getWithBearer(t *testing.T, url string, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" {
			return cookie
		}
	}
	return nil
}
