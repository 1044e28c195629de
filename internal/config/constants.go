package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the users and security log database
	DefaultDatabasePath = "./data/auth.sqlite"

	// DefaultSessionDatabasePath is the default path for the session store database
	DefaultSessionDatabasePath = "./data/sessions.sqlite"
)
