package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/entities"
)

// CSRFTokenHeader is the header carrying the CSRF ticket on mutating requests.
const CSRFTokenHeader = "X-CSRF-Token"

const (
	csrfSecretSize = 32
	csrfSaltSize   = 16
)

// CSRF issues and validates tickets bound to the current session.
//
// Each session holds a random secret. A ticket is salt || HMAC(key, secret || salt)
// and only validates against the session that minted it. Destroying the session
// on logout invalidates every ticket issued for it.
type CSRF struct {
	sessions *SessionManager
	key      []byte
	events   EventRecorder
}

// NewCSRF creates CSRF protection keyed with the server secret.
func NewCSRF(sessions *SessionManager, key []byte, events EventRecorder) *CSRF {
	return &CSRF{sessions: sessions, key: key, events: events}
}

// IssueTicket returns a fresh ticket for the session in ctx, creating the
// session secret on first use.
func (c *CSRF) IssueTicket(ctx context.Context) (string, error) {
	secret := c.sessions.GetBytes(ctx, SessionKeyCSRFSecret)
	if len(secret) == 0 {
		secret = make([]byte, csrfSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return "", err
		}
		c.sessions.Put(ctx, SessionKeyCSRFSecret, secret)
	}

	salt := make([]byte, csrfSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	ticket := append(salt, c.sign(secret, salt)...)
	return base64.RawURLEncoding.EncodeToString(ticket), nil
}

// Validate checks a ticket against the session in ctx.
func (c *CSRF) Validate(ctx context.Context, ticket string) error {
	secret := c.sessions.GetBytes(ctx, SessionKeyCSRFSecret)
	if len(secret) == 0 || ticket == "" {
		return ErrCSRF
	}

	raw, err := base64.RawURLEncoding.DecodeString(ticket)
	if err != nil || len(raw) != csrfSaltSize+sha256.Size {
		return ErrCSRF
	}

	salt, mac := raw[:csrfSaltSize], raw[csrfSaltSize:]
	if !hmac.Equal(mac, c.sign(secret, salt)) {
		return ErrCSRF
	}
	return nil
}

func (c *CSRF) sign(secret, salt []byte) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write(secret)
	h.Write(salt)
	return h.Sum(nil)
}

// Middleware rejects unsafe requests that lack a valid ticket in the
// X-CSRF-Token header. Safe methods pass through.
func (c *CSRF) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			ctx.Next()
			return
		}

		if err := c.Validate(ctx.Request.Context(), ctx.GetHeader(CSRFTokenHeader)); err != nil {
			ev := audit.Event{Tag: entities.SecurityEventCSRFFailure, Reason: entities.ReasonInvalidTicket}
			if p, ok := c.sessions.Identity(ctx.Request.Context()); ok {
				ev.UserID = p.ID
			}
			recordEvent(ctx.Request.Context(), c.events, ev)
			abortWithError(ctx, err)
			return
		}

		ctx.Next()
	}
}
