// Package backend selects and constructs the record store at process
// start. The HTTP layer receives the store as an interface and never knows
// which implementation is behind it.
package backend

import "spendlog/internal/records"

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the constructed store and an optional cleanup function.
type Result struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string
}

// Type represents the kind of record store backing the server.
type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres:
		return true
	default:
		return false
	}
}
