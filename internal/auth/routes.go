package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/entities"
)

// Routes holds everything the session and bearer route groups need.
type Routes struct {
	Service      *Service
	Sessions     *SessionManager
	CSRF         *CSRF
	Tokens       *TokenAuthenticator
	LoginLimiter *RateLimiter // Optional, applied to session login only
	Events       EventRecorder

	// AdminLogs serves the security log to administrators. Optional.
	AdminLogs gin.HandlerFunc
}

// Register mounts the /session and /auth route groups on router.
func (r Routes) Register(router gin.IRouter) {
	mw := NewMiddleware(r.Sessions, r.Tokens, r.Events)

	// Cookie session scheme. CSRF runs after the session is loaded since
	// tickets are bound to it.
	sc := NewSessionController(r.Service, r.Sessions, r.CSRF, r.Events)
	session := router.Group("/session")
	session.Use(r.Sessions.SessionLoadSave(), mw.SessionAuth(), r.CSRF.Middleware())
	{
		session.GET("/csrf-token", sc.CSRFToken)

		accounts := session.Group("/auth")
		accounts.POST("/register", sc.Register)
		if r.LoginLimiter != nil {
			accounts.POST("/login", r.LoginLimiter.Middleware(), sc.Login)
		} else {
			accounts.POST("/login", sc.Login)
		}
		accounts.POST("/logout", sc.Logout)

		authenticated := session.Group("", mw.RequireAuth())
		authenticated.GET("/me", sc.Me)

		admin := authenticated.Group("", mw.RequireRole(entities.UserRoleAdmin))
		admin.GET("/admin", sc.Admin)
		if r.AdminLogs != nil {
			admin.GET("/logs", r.AdminLogs)
		}
	}

	// Bearer token scheme. Stateless: no session, no CSRF.
	tc := NewTokenController(r.Service, r.Tokens)
	bearer := router.Group("/auth")
	{
		bearer.POST("/login-jwt", tc.Login)
		bearer.POST("/logout-jwt", tc.Logout)

		protected := bearer.Group("", mw.BearerAuth(), mw.RequireBearer())
		protected.GET("/me-jwt", tc.Me)

		admin := protected.Group("", mw.RequireRole(entities.UserRoleAdmin))
		admin.GET("/admin-jwt", tc.Admin)
		if r.AdminLogs != nil {
			admin.GET("/admin-logs-jwt", r.AdminLogs)
		}
	}
}
