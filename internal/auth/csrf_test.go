package auth

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/entities"
)

func setupCSRFRouter(t *testing.T) (*gin.Engine, *recordedEvents) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sm := NewSessionManager(NewMemorySessionStore(), testAuthConfig())
	events := &recordedEvents{}
	csrf := NewCSRF(sm, []byte("test-session-secret"), events)

	router := gin.New()
	router.Use(sm.SessionLoadSave(), csrf.Middleware())
	router.GET("/session/csrf-token", func(c *gin.Context) {
		ticket, err := csrf.IssueTicket(c.Request.Context())
		if err != nil {
			t.Errorf("IssueTicket() error = %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"csrfToken": ticket})
	})
	router.GET("/read", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/write", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/reset", func(c *gin.Context) {
		_ = sm.DestroySession(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router, events
}

func TestCSRFMiddleware_AllowsSafeMethods(t *testing.T) {
	router, _ := setupCSRFRouter(t)
	b := newBrowser(t, router)

	if rr := b.do(http.MethodGet, "/read", nil, nil); rr.Code != http.StatusOK {
		t.Errorf("GET without ticket: expected 200, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_RejectsMissingTicket(t *testing.T) {
	router, events := setupCSRFRouter(t)
	b := newBrowser(t, router)

	rr := b.do(http.MethodPost, "/write", nil, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	var body map[string]string
	decode(t, rr, &body)
	if body["error"] != ErrCSRF.Error() {
		t.Errorf("error = %q, want %q", body["error"], ErrCSRF.Error())
	}

	last := events.last()
	if last.Tag != entities.SecurityEventCSRFFailure || last.Reason != entities.ReasonInvalidTicket {
		t.Errorf("unexpected event: %+v", last)
	}
}

func TestCSRFMiddleware_AcceptsFreshTicket(t *testing.T) {
	router, _ := setupCSRFRouter(t)
	b := newBrowser(t, router)

	if rr := b.post("/write", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before fetching a ticket, got %d", rr.Code)
	}

	first := b.fetchCSRF()
	if rr := b.post("/write", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with ticket, got %d", rr.Code)
	}

	// Several tickets for one session are valid at once
	second := b.fetchCSRF()
	if first == second {
		t.Error("each issued ticket should be distinct")
	}
	rr := b.do(http.MethodPost, "/write", nil, map[string]string{CSRFTokenHeader: first})
	if rr.Code != http.StatusOK {
		t.Errorf("earlier ticket should remain valid, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_TicketBoundToSession(t *testing.T) {
	router, _ := setupCSRFRouter(t)
	alice := newBrowser(t, router)
	mallory := newBrowser(t, router)

	ticket := alice.fetchCSRF()
	mallory.fetchCSRF()

	rr := mallory.do(http.MethodPost, "/write", nil, map[string]string{CSRFTokenHeader: ticket})
	if rr.Code != http.StatusForbidden {
		t.Errorf("ticket from another session: expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_DestroyedSessionInvalidatesTickets(t *testing.T) {
	router, _ := setupCSRFRouter(t)
	b := newBrowser(t, router)

	b.fetchCSRF()
	if rr := b.post("/reset", nil); rr.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", rr.Code)
	}
	if rr := b.post("/write", nil); rr.Code != http.StatusForbidden {
		t.Errorf("stale ticket: expected 403, got %d", rr.Code)
	}

	b.fetchCSRF()
	if rr := b.post("/write", nil); rr.Code != http.StatusOK {
		t.Errorf("after re-fetch: expected 200, got %d", rr.Code)
	}
}

func TestCSRF_ValidateMalformed(t *testing.T) {
	router, _ := setupCSRFRouter(t)
	b := newBrowser(t, router)
	b.fetchCSRF()

	for _, ticket := range []string{"", "!!!", "c2hvcnQ", b.csrf + "AA"} {
		rr := b.do(http.MethodPost, "/write", nil, map[string]string{CSRFTokenHeader: ticket})
		if rr.Code != http.StatusForbidden {
			t.Errorf("ticket %q: expected 403, got %d", ticket, rr.Code)
		}
	}
}
