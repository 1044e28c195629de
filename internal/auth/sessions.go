package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database"
	"github.com/mrlokans/authgate/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID     = "user_id"
	SessionKeyRole       = "role"
	SessionKeyCSRFSecret = "csrf_secret"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	// Register types that will be stored in sessions
	gob.Register(entities.UserRole(""))
}

// SessionStore is the key-value backing for sessions, with expiry handled by
// the store. Close releases whatever the store opened.
type SessionStore struct {
	scs.Store
	close func() error
}

// Close stops background cleanup and closes any database the store owns.
func (s *SessionStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewMemorySessionStore returns a process-local session store.
func NewMemorySessionStore() *SessionStore {
	store := memstore.New()
	return &SessionStore{
		Store: store,
		close: func() error {
			store.StopCleanup()
			return nil
		},
	}
}

// NewSQLiteSessionStore returns a session store persisted in SQLite.
// The caller keeps ownership of db.
func NewSQLiteSessionStore(db *sql.DB) (*SessionStore, error) {
	if _, err := db.Exec(sessionsSchema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	store := sqlite3store.New(db)
	return &SessionStore{
		Store: store,
		close: func() error {
			store.StopCleanup()
			return nil
		},
	}, nil
}

// OpenSessionStore builds the session store selected by configuration.
// When the SQLite store has no dedicated path it shares fallback.
func OpenSessionStore(cfg config.Auth, fallback *sql.DB) (*SessionStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		return NewMemorySessionStore(), nil
	case config.SessionStoreSQLite, "":
		if cfg.SessionDBPath == "" {
			return NewSQLiteSessionStore(fallback)
		}
		if err := database.EnsureDir(cfg.SessionDBPath); err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite3", cfg.SessionDBPath+"?_busy_timeout=5000&_journal_mode=WAL")
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		store, err := NewSQLiteSessionStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		stop := store.close
		store.close = func() error {
			_ = stop()
			return db.Close()
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
func NewSessionManager(store scs.Store, cfg config.Auth) *SessionManager {
	sm := scs.New()
	sm.Store = store

	// Absolute lifetime plus a rolling idle window renewed on every request
	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 30 * 24 * time.Hour
	}
	sm.IdleTimeout = cfg.SessionIdleTimeout

	sm.Cookie.Name = cfg.SessionCookieName
	if sm.Cookie.Name == "" {
		sm.Cookie.Name = "sid"
	}
	sm.Cookie.Domain = cfg.SessionDomain
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = true

	return &SessionManager{SessionManager: sm}
}

// CreateSession binds the session to a user after successful authentication.
// The token is renewed first so a pre-login session id cannot be fixated.
func (sm *SessionManager) CreateSession(ctx context.Context, user *entities.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, SessionKeyUserID, user.ID)
	sm.Put(ctx, SessionKeyRole, user.Role)

	return nil
}

// DestroySession removes all session data. Safe to call without a session.
func (sm *SessionManager) DestroySession(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// Identity returns the principal bound to the session, if any.
func (sm *SessionManager) Identity(ctx context.Context) (*Principal, bool) {
	userID := sm.GetString(ctx, SessionKeyUserID)
	if userID == "" {
		return nil, false
	}
	role, _ := sm.Get(ctx, SessionKeyRole).(entities.UserRole)
	return &Principal{ID: userID, Role: role}, true
}
