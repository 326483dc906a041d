package sqlite

import "time"

// Config configures an embedded SQLite database.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory
	// database, which forces a single connection.
	Path string

	// BusyTimeout is how long a statement waits for a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// JournalMode is the SQLite journal mode.
	// Default: "WAL"
	JournalMode string

	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool

	// MaxOpenConns caps the connection pool.
	// Default: 4
	MaxOpenConns int
}

const (
	defaultBusyTimeout  = 5 * time.Second
	defaultJournalMode  = "WAL"
	defaultMaxOpenConns = 4
)
