package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database"
	"github.com/mrlokans/authgate/internal/database/users"
)

const testPassword = "correct-horse-battery"

// recordedEvents captures security events synchronously.
type recordedEvents struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordedEvents) Record(_ context.Context, ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedEvents) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

func (r *recordedEvents) last() audit.Event {
	all := r.all()
	if len(all) == 0 {
		return audit.Event{}
	}
	return all[len(all)-1]
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionStore:           config.SessionStoreMemory,
		SessionCookieName:      "sid",
		SessionLifetime:        24 * time.Hour,
		SessionIdleTimeout:     time.Hour,
		TokenExpiry:            DefaultTokenExpiry,
		BcryptCost:             bcrypt.MinCost,
		MaxLoginAttempts:       5,
		LockoutDuration:        10 * time.Minute,
		LoginRateLimit:         20,
		RateLimitWindow:        15 * time.Minute,
		AllowAdminRegistration: true,
	}
}

func setupUserRepository(t *testing.T) *users.Repository {
	t.Helper()
	db, err := database.NewDatabase(database.InMemoryPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return users.NewRepository(db.DB)
}

func setupService(t *testing.T, cfg config.Auth) (*Service, *users.Repository, *recordedEvents, *fakeClock) {
	t.Helper()
	repo := setupUserRepository(t)
	events := &recordedEvents{}
	clock := newFakeClock()
	svc := NewService(repo, events, cfg)
	svc.SetClock(clock.Now)
	return svc, repo, events, clock
}

// testServer wires both authentication schemes onto one router.
type testServer struct {
	router   *gin.Engine
	service  *Service
	repo     *users.Repository
	sessions *SessionManager
	tokens   *TokenAuthenticator
	events   *recordedEvents
	clock    *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testAuthConfig()
	svc, repo, events, clock := setupService(t, cfg)

	store := NewMemorySessionStore()
	t.Cleanup(func() { _ = store.Close() })
	sessions := NewSessionManager(store, cfg)
	csrf := NewCSRF(sessions, []byte("test-session-secret"), events)
	tokens := NewTokenAuthenticator([]byte("test-jwt-secret"), cfg.TokenExpiry)
	tokens.SetClock(clock.Now)

	router := gin.New()
	router.Use(audit.RequestSource())
	Routes{
		Service:  svc,
		Sessions: sessions,
		CSRF:     csrf,
		Tokens:   tokens,
		Events:   events,
	}.Register(router)

	return &testServer{
		router:   router,
		service:  svc,
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		events:   events,
		clock:    clock,
	}
}

// browser keeps cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	csrf    string
}

func newBrowser(t *testing.T, handler http.Handler) *browser {
	return &browser{t: t, handler: handler, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	b.handler.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rr
}

// fetchCSRF obtains a ticket for the current session and remembers it.
func (b *browser) fetchCSRF() string {
	b.t.Helper()
	rr := b.do(http.MethodGet, "/session/csrf-token", nil, nil)
	if rr.Code != http.StatusOK {
		b.t.Fatalf("csrf-token: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		CSRFToken string `json:"csrfToken"`
	}
	decode(b.t, rr, &resp)
	if resp.CSRFToken == "" {
		b.t.Fatal("csrf-token: empty ticket")
	}
	b.csrf = resp.CSRFToken
	return b.csrf
}

// post sends a mutating request carrying the remembered CSRF ticket.
func (b *browser) post(path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(http.MethodPost, path, body, map[string]string{CSRFTokenHeader: b.csrf})
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}
