package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/entities"
)

// credentialsRequest accepts JSON or form-encoded credentials.
type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func bindCredentials(c *gin.Context) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return nil, false
	}
	return &req, true
}

// SessionController handles the cookie session endpoints.
type SessionController struct {
	service  *Service
	sessions *SessionManager
	csrf     *CSRF
	events   EventRecorder
}

// NewSessionController creates the session endpoints controller.
func NewSessionController(service *Service, sessions *SessionManager, csrf *CSRF, events EventRecorder) *SessionController {
	return &SessionController{
		service:  service,
		sessions: sessions,
		csrf:     csrf,
		events:   events,
	}
}

// CSRFToken issues a ticket bound to the caller's session.
func (sc *SessionController) CSRFToken(c *gin.Context) {
	ticket, err := sc.csrf.IssueTicket(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": ticket})
}

// Register creates an account. It does not log the caller in.
func (sc *SessionController) Register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := sc.service.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": user.Public()})
}

// Login verifies credentials under the lockout policy and binds the session.
func (sc *SessionController) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := sc.service.AuthenticateSession(ctx, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := sc.sessions.CreateSession(ctx, user); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user.Public()})
}

// Logout destroys the session. It succeeds with or without one.
func (sc *SessionController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	p, hadSession := sc.sessions.Identity(ctx)

	if err := sc.sessions.DestroySession(ctx); err != nil {
		log.Printf("[SESSION] failed to destroy session: %v", err)
	}

	if hadSession {
		recordEvent(ctx, sc.events, audit.Event{Tag: entities.SecurityEventLogoutSession, UserID: p.ID, Success: true})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the session principal.
func (sc *SessionController) Me(c *gin.Context) {
	p := GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
}

// Admin is a probe endpoint for administrator sessions.
func (sc *SessionController) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "admin": true})
}

// TokenController handles the bearer token endpoints.
type TokenController struct {
	service *Service
	tokens  *TokenAuthenticator
}

// NewTokenController creates the bearer token endpoints controller.
func NewTokenController(service *Service, tokens *TokenAuthenticator) *TokenController {
	return &TokenController{service: service, tokens: tokens}
}

// Login verifies credentials and issues a signed token.
func (tc *TokenController) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := tc.service.AuthenticateToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, err := tc.tokens.Issue(user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(tc.tokens.Expiry().Seconds()),
	})
}

// Me returns the token principal.
func (tc *TokenController) Me(c *gin.Context) {
	p := GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
}

// Admin is a probe endpoint for administrator tokens.
func (tc *TokenController) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "admin access granted"})
}

// Logout is a no-op: tokens are not revocable and expire on their own.
// Clients discard the token.
func (tc *TokenController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func recordEvent(ctx context.Context, events EventRecorder, ev audit.Event) {
	if events != nil {
		events.Record(ctx, ev)
	}
}
