package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
	"github.com/mrlokans/authgate/internal/database/securitylog"
	"github.com/mrlokans/authgate/internal/database/users"
	"github.com/mrlokans/authgate/internal/http"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// CredentialStore implementations
var _ auth.CredentialStore = (*users.Repository)(nil)
var _ auth.FailureCounter = (*users.Repository)(nil)

// Security log persistence
var _ audit.Store = (*securitylog.Repository)(nil)
var _ http.SecurityLogReader = (*audit.Service)(nil)

// =============================================================================
// Events
// =============================================================================

var _ auth.EventRecorder = (*audit.Service)(nil)

// =============================================================================
// Session Storage
// =============================================================================

var _ scs.Store = (*memstore.MemStore)(nil)
var _ scs.Store = (*sqlite3store.SQLite3Store)(nil)
var _ scs.Store = (*auth.SessionStore)(nil)
