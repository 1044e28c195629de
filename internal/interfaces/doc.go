// Package interfaces documents the core abstractions used throughout the service.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CredentialStore: user records and atomic failure counters (internal/auth/service.go)
//   - FailureCounter: the lockout subset of CredentialStore (internal/auth/lockout.go)
//   - Store: append-only security log persistence (internal/audit/service.go)
//   - SecurityLogReader: newest-first security log listing (internal/http/audit.go)
//
// ## Event Interfaces
//
//   - EventRecorder: non-blocking sink for security events (internal/auth/service.go)
//
// ## Session Storage
//
// Sessions are stored through scs.Store. Two backings are wired:
// memstore for process-local state and sqlite3store for persistence.
//
// # Adding a New Credential Backend
//
//  1. Create sub-package: internal/database/<backend>/
//
//  2. Implement every CredentialStore method. IncrementFailedLogin must be a
//     row-level atomic update: concurrent failures may not lose increments,
//     and only one of them may report the lock transition.
//
//  3. Add compile-time check in checks.go:
//
//     var _ auth.CredentialStore = (*backend.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
