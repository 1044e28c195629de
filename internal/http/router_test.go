package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database"
	"github.com/mrlokans/authgate/internal/database/securitylog"
	"github.com/mrlokans/authgate/internal/database/users"
)

type routerFixture struct {
	router      *gin.Engine
	securityLog *audit.Service
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(database.InMemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Auth{
		SessionStore:           config.SessionStoreMemory,
		SessionCookieName:      "sid",
		SessionLifetime:        time.Hour,
		SessionIdleTimeout:     time.Hour,
		TokenExpiry:            900 * time.Second,
		BcryptCost:             bcrypt.MinCost,
		MaxLoginAttempts:       5,
		LockoutDuration:        10 * time.Minute,
		AllowAdminRegistration: true,
	}

	securityLog := audit.NewService(securitylog.NewRepository(db.DB), securitylog.DefaultListLimit)
	store := auth.NewMemorySessionStore()
	t.Cleanup(func() { _ = store.Close() })
	sessions := auth.NewSessionManager(store, cfg)

	router := NewRouter(RouterConfig{
		Database:       db,
		AuthService:    auth.NewService(users.NewRepository(db.DB), securityLog, cfg),
		SecurityLog:    securityLog,
		SessionManager: sessions,
		CSRF:           auth.NewCSRF(sessions, []byte("csrf-key"), securityLog),
		LoginLimiter:   auth.NewRateLimiter(auth.RateLimitConfig{MaxRequests: 20, Window: 15 * time.Minute}),
		Tokens:         auth.NewTokenAuthenticator([]byte("jwt-key"), cfg.TokenExpiry),
		Version:        "test",
	})

	return &routerFixture{router: router, securityLog: securityLog}
}

// client is a minimal cookie-keeping HTTP client for the router.
type client struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
	csrf    string
}

func (c *client) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func (c *client) fetchCSRF() {
	c.t.Helper()
	w := c.do(http.MethodGet, "/session/csrf-token", "", nil)
	require.Equal(c.t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp))
	c.csrf = resp["csrfToken"]
}

func (c *client) post(path, body string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, body, map[string]string{auth.CSRFTokenHeader: c.csrf})
}

func TestRouter_SessionAdminCanReadLogs(t *testing.T) {
	f := setupRouter(t)
	c := &client{t: t, router: f.router}

	c.fetchCSRF()
	w := c.post("/session/auth/register", `{"email":"root@example.com","password":"correct-horse-battery","role":"admin"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.post("/session/auth/login", `{"email":"root@example.com","password":"correct-horse-battery"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/session/admin", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"admin":true}`, w.Body.String())

	f.securityLog.Flush(context.Background())

	w = c.do(http.MethodGet, "/session/logs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs []struct {
			Event   string  `json:"event"`
			Email   *string `json:"email"`
			Success bool    `json:"success"`
			IP      string  `json:"ip"`
			Path    string  `json:"path"`
		} `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 2)

	events := []string{resp.Logs[0].Event, resp.Logs[1].Event}
	assert.ElementsMatch(t, []string{"register", "login_session"}, events)
	for _, entry := range resp.Logs {
		assert.True(t, entry.Success)
		assert.NotEmpty(t, entry.IP)
		assert.True(t, strings.HasPrefix(entry.Path, "/session/"))
	}
}

func TestRouter_ServesEveryEndpoint(t *testing.T) {
	f := setupRouter(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/session/csrf-token"},
		{http.MethodPost, "/session/auth/register"},
		{http.MethodPost, "/session/auth/login"},
		{http.MethodPost, "/session/auth/logout"},
		{http.MethodGet, "/session/me"},
		{http.MethodGet, "/session/admin"},
		{http.MethodGet, "/session/logs"},
		{http.MethodPost, "/auth/login-jwt"},
		{http.MethodGet, "/auth/me-jwt"},
		{http.MethodGet, "/auth/admin-jwt"},
		{http.MethodGet, "/auth/admin-logs-jwt"},
		{http.MethodPost, "/auth/logout-jwt"},
	}

	for _, e := range endpoints {
		t.Run(e.method+" "+e.path, func(t *testing.T) {
			c := &client{t: t, router: f.router}
			w := c.do(e.method, e.path, "", nil)
			assert.NotEqual(t, http.StatusNotFound, w.Code, w.Body.String())
		})
	}
}

func TestRouter_SessionLogoutWithTicket(t *testing.T) {
	f := setupRouter(t)
	c := &client{t: t, router: f.router}

	c.fetchCSRF()
	w := c.post("/session/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = c.post("/session/auth/logout", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_SessionLogsRequireAdmin(t *testing.T) {
	f := setupRouter(t)
	c := &client{t: t, router: f.router}

	w := c.do(http.MethodGet, "/session/logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.fetchCSRF()
	c.post("/session/auth/register", `{"email":"user@example.com","password":"correct-horse-battery"}`)
	c.post("/session/auth/login", `{"email":"user@example.com","password":"correct-horse-battery"}`)

	w = c.do(http.MethodGet, "/session/logs", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_TokenAdminCanReadLogs(t *testing.T) {
	f := setupRouter(t)
	c := &client{t: t, router: f.router}

	c.fetchCSRF()
	c.post("/session/auth/register", `{"email":"root@example.com","password":"correct-horse-battery","role":"admin"}`)

	w := c.do(http.MethodPost, "/auth/login-jwt", `{"email":"root@example.com","password":"correct-horse-battery"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	bearer := map[string]string{"Authorization": "Bearer " + token}

	w = c.do(http.MethodGet, "/auth/admin-jwt", "", bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	f.securityLog.Flush(context.Background())

	w = c.do(http.MethodGet, "/auth/admin-logs-jwt?limit=1", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Logs []map[string]any `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Logs, 1)

	w = c.do(http.MethodGet, "/auth/admin-logs-jwt", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SecurityHeadersAndNotFound(t *testing.T) {
	f := setupRouter(t)
	c := &client{t: t, router: f.router}

	w := c.do(http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	f := setupRouter(t)
	f.router.GET("/boom", func(c *gin.Context) {
		panic("secret internal detail")
	})
	c := &client{t: t, router: f.router}

	w := c.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
