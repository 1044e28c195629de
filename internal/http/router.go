package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
)

// hstsMaxAge is one year, in seconds.
const hstsMaxAge = 31536000

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(recoverInternal))

	// Client IP and path for the security log
	router.Use(audit.RequestSource())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	auditController := NewAuditController(cfg.SecurityLog)

	auth.Routes{
		Service:      cfg.AuthService,
		Sessions:     cfg.SessionManager,
		CSRF:         cfg.CSRF,
		Tokens:       cfg.Tokens,
		LoginLimiter: cfg.LoginLimiter,
		Events:       cfg.SecurityLog,
		AdminLogs:    auditController.List,
	}.Register(router)

	return router
}

// recoverInternal turns a handler panic into a generic 500.
func recoverInternal(c *gin.Context, recovered any) {
	log.Printf("[HTTP] panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
