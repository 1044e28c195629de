// Package database provides the data access layer for the service.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── users/           # Credential store with atomic lockout updates
//	└── securitylog/     # Append-only security event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./data/auth.sqlite")
//
//	usersRepo := users.NewRepository(db.DB)
//	logRepo := securitylog.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - users.Repository: implements auth.CredentialStore
//   - securitylog.Repository: implements audit.Store
//
// Each sub-package carries a compile-time interface check in its tests.
package database
