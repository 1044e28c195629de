package http

import (
	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
	"github.com/mrlokans/authgate/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	AuthService *auth.Service
	SecurityLog *audit.Service

	// Session scheme
	SessionManager *auth.SessionManager
	CSRF           *auth.CSRF
	LoginLimiter   *auth.RateLimiter

	// Bearer scheme
	Tokens *auth.TokenAuthenticator

	// Send HSTS on HTTPS requests
	SecureCookies bool

	// Application info
	Version string
}
