package config

import (
	"time"

	"github.com/spf13/viper"
)

// SessionStoreKind selects the backing store for server-side sessions.
type SessionStoreKind string

const (
	SessionStoreSQLite SessionStoreKind = "sqlite" // Persistent store in a SQLite database (default)
	SessionStoreMemory SessionStoreKind = "memory" // Process-local store, lost on restart
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		SecurityLog
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		// Session configuration
		SessionStore       SessionStoreKind
		SessionDBPath      string // Empty means the main database is reused
		SessionSecret      string // Key for CSRF ticket signing, generated if empty
		SessionCookieName  string
		SessionDomain      string
		SessionLifetime    time.Duration // Absolute lifetime of a session
		SessionIdleTimeout time.Duration // Rolling renewal window
		SecureCookies      bool

		// Bearer token configuration
		JWTSecret   string
		TokenExpiry time.Duration

		BcryptCost int

		// Lockout configuration
		MaxLoginAttempts int           // Consecutive failures before lockout (default: 5)
		LockoutDuration  time.Duration // How long the account stays locked (default: 10m)

		// Rate limiting configuration for session login
		LoginRateLimit  int           // Requests per window per source (default: 20)
		RateLimitWindow time.Duration // Window for the request budget (default: 15m)

		AllowAdminRegistration bool // Honour role=admin on public registration
		TokenLoginLockout      bool // Apply the lockout policy to bearer token login
	}
	SecurityLog struct {
		ListLimit int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Session defaults
	v.SetDefault("auth_session_store", string(SessionStoreSQLite))
	v.SetDefault("auth_session_db_path", DefaultSessionDatabasePath)
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_cookie_name", "sid")
	v.SetDefault("auth_session_domain", "")
	v.SetDefault("auth_session_lifetime", "720h")     // 30 days absolute
	v.SetDefault("auth_session_idle_timeout", "168h") // 7 days rolling
	v.SetDefault("auth_secure_cookies", false)

	// Token defaults
	v.SetDefault("auth_jwt_secret", "") // Auto-generated if empty
	v.SetDefault("auth_jwt_expires", "900s")

	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_lockout_duration", "10m")
	v.SetDefault("auth_login_rate_limit", 20)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_allow_admin_registration", true)
	v.SetDefault("auth_token_login_lockout", false)

	v.SetDefault("security_log_list_limit", 200)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SessionStore:           SessionStoreKind(v.GetString("AUTH_SESSION_STORE")),
			SessionDBPath:          v.GetString("AUTH_SESSION_DB_PATH"),
			SessionSecret:          v.GetString("AUTH_SESSION_SECRET"),
			SessionCookieName:      v.GetString("AUTH_SESSION_COOKIE_NAME"),
			SessionDomain:          v.GetString("AUTH_SESSION_DOMAIN"),
			SessionLifetime:        v.GetDuration("AUTH_SESSION_LIFETIME"),
			SessionIdleTimeout:     v.GetDuration("AUTH_SESSION_IDLE_TIMEOUT"),
			SecureCookies:          v.GetBool("AUTH_SECURE_COOKIES"),
			JWTSecret:              v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry:            v.GetDuration("AUTH_JWT_EXPIRES"),
			BcryptCost:             v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts:       v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:        v.GetDuration("AUTH_LOCKOUT_DURATION"),
			LoginRateLimit:         v.GetInt("AUTH_LOGIN_RATE_LIMIT"),
			RateLimitWindow:        v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			AllowAdminRegistration: v.GetBool("AUTH_ALLOW_ADMIN_REGISTRATION"),
			TokenLoginLockout:      v.GetBool("AUTH_TOKEN_LOGIN_LOCKOUT"),
		},
		SecurityLog: SecurityLog{
			ListLimit: v.GetInt("SECURITY_LOG_LIST_LIMIT"),
		},
	}
}
