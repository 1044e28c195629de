package auth

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/entities"
)

// Context keys for authentication data
const (
	ContextKeyPrincipal = "auth_principal"
	ContextKeyAuthType  = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware resolves the request principal and enforces access rules.
type Middleware struct {
	sessions *SessionManager
	tokens   *TokenAuthenticator
	events   EventRecorder
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(sessions *SessionManager, tokens *TokenAuthenticator, events EventRecorder) *Middleware {
	return &Middleware{
		sessions: sessions,
		tokens:   tokens,
		events:   events,
	}
}

// SessionAuth sets the principal from the session, when one is bound.
// Requires SessionLoadSave earlier in the chain.
func (m *Middleware) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := m.sessions.Identity(c.Request.Context()); ok {
			setPrincipal(c, p, AuthTypeSession)
		}
		c.Next()
	}
}

// BearerAuth sets the principal from an Authorization: Bearer header.
// A missing header passes through; a present but invalid token is rejected.
func (m *Middleware) BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, ErrInvalidToken)
			return
		}

		p, err := m.tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, err)
			return
		}

		setPrincipal(c, p, AuthTypeBearer)
		c.Next()
	}
}

// RequireAuth rejects requests without a principal.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := RequireAuthenticated(GetPrincipal(c)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireBearer rejects requests that did not present a valid bearer token.
func (m *Middleware) RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAuthType(c) != AuthTypeBearer {
			abortWithError(c, ErrInvalidToken)
			return
		}
		c.Next()
	}
}

// RequireRole returns a middleware that requires exactly the given role.
func (m *Middleware) RequireRole(role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if err := RequireRole(p, role); err != nil {
			if errors.Is(err, ErrForbidden) {
				recordEvent(c.Request.Context(), m.events, audit.Event{
					Tag:    entities.SecurityEventAccessDenied,
					UserID: p.ID,
					Reason: entities.ReasonWrongRole,
				})
			}
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p *Principal, authType AuthType) {
	c.Set(ContextKeyPrincipal, p)
	c.Set(ContextKeyAuthType, authType)
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns nil if not authenticated.
func GetPrincipal(c *gin.Context) *Principal {
	if v, exists := c.Get(ContextKeyPrincipal); exists {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// abortWithError writes the error's status and public message. Locked
// responses also carry the remaining lock time.
func abortWithError(c *gin.Context, err error) {
	status := StatusCode(err)
	body := gin.H{"error": PublicMessage(err)}

	var locked *LockedError
	if errors.As(err, &locked) {
		seconds := locked.Seconds()
		c.Header("Retry-After", strconv.Itoa(seconds))
		body["retry_after"] = seconds
	}
	if status >= 500 {
		log.Printf("[AUTH] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.AbortWithStatusJSON(status, body)
}
