package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Aleph-Alpha/orm/v1/dialect"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/transport"
)

// SQLite is an embedded database opened through modernc.org/sqlite, a pure
// Go driver.
type SQLite struct {
	cfg Config
	db  *sql.DB
	orm *orm.Database
}

// NewSQLite opens the database described by cfg and verifies it with a ping.
func NewSQLite(cfg Config, opts ...orm.Option) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	if cfg.Path == ":memory:" {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLite{
		cfg: cfg,
		db:  db,
		orm: orm.New(transport.SQL(db), dialect.SQLite,
			append([]orm.Option{orm.WithErrorTranslator(TranslateError)}, opts...)...),
	}, nil
}

func dsn(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	journal := cfg.JournalMode
	if journal == "" {
		journal = defaultJournalMode
	}
	if cfg.Path == ":memory:" {
		journal = "MEMORY"
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(journal)))
	if cfg.ForeignKeys {
		q.Add("_pragma", "foreign_keys(1)")
	}
	q.Set("_time_format", "sqlite")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// DB returns the underlying pool.
func (s *SQLite) DB() *sql.DB { return s.db }

// ORM returns the executor bound to this database.
func (s *SQLite) ORM() *orm.Database { return s.orm }

// CreateTables creates the tables of the given models if they do not exist.
func (s *SQLite) CreateTables(ctx context.Context, models ...*schema.Model) error {
	for _, m := range models {
		if _, err := s.db.ExecContext(ctx, dialect.SQLite.CreateTable(m)); err != nil {
			return fmt.Errorf("create table %s: %w", m.Table(), err)
		}
	}
	return nil
}

// Close closes the pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GracefulShutdown closes the pool. It exists so SQLite satisfies the same
// client surface as the networked backends.
func (s *SQLite) GracefulShutdown() error {
	return s.Close()
}
