package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database"
	"github.com/mrlokans/authgate/internal/database/securitylog"
	"github.com/mrlokans/authgate/internal/database/users"
	http_controllers "github.com/mrlokans/authgate/internal/http"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Requests are drained, now flush what they left behind
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// secretOrGenerate returns the configured key, or a random one that only
// lives as long as the process.
func secretOrGenerate(configured, envName string) []byte {
	if configured != "" {
		return auth.DecodeSecret(configured)
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		log.Fatalf("Failed to generate %s: %v", envName, err)
	}
	log.Printf("WARNING: %s is not set, generated an ephemeral key. Anything signed with it becomes invalid on restart.", envName)
	return auth.DecodeSecret(secret)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting AuthGate v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Security event log, written asynchronously
	securityLog := audit.NewService(securitylog.NewRepository(db.DB), cfg.SecurityLog.ListLimit)

	// Session store: shares the main database unless a dedicated path is set
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionStore, err := auth.OpenSessionStore(cfg.Auth, sqlDB)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			log.Printf("Error closing session store: %v", err)
		}
	}()
	log.Printf("Session store: %s", cfg.Auth.SessionStore)

	sessionManager := auth.NewSessionManager(sessionStore, cfg.Auth)
	csrf := auth.NewCSRF(sessionManager, secretOrGenerate(cfg.Auth.SessionSecret, "AUTH_SESSION_SECRET"), securityLog)
	tokens := auth.NewTokenAuthenticator(secretOrGenerate(cfg.Auth.JWTSecret, "AUTH_JWT_SECRET"), cfg.Auth.TokenExpiry)
	loginLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxRequests: cfg.Auth.LoginRateLimit,
		Window:      cfg.Auth.RateLimitWindow,
	})

	authService := auth.NewService(users.NewRepository(db.DB), securityLog, cfg.Auth)

	if hasUsers, err := authService.HasUsers(context.Background()); err == nil && !hasUsers {
		log.Printf("No users exist yet. Register through /session/auth/register or run the create-admin command.")
	}
	if cfg.Auth.AllowAdminRegistration {
		log.Printf("WARNING: public registration may request the admin role. Set AUTH_ALLOW_ADMIN_REGISTRATION=false to disable.")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuthService:    authService,
		SecurityLog:    securityLog,
		SessionManager: sessionManager,
		CSRF:           csrf,
		LoginLimiter:   loginLimiter,
		Tokens:         tokens,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	})

	Serve(router, cfg, func(ctx context.Context) {
		securityLog.Flush(ctx)
	})
}
