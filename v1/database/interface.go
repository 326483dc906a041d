package database

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/orm/v1/mariadb"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/postgres"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/sqlite"
)

// Client is the backend-agnostic surface shared by *postgres.Postgres,
// *mariadb.MariaDB and *sqlite.SQLite. Code written against ORM() runs on
// any of them; the dialect is chosen by the backend.
type Client interface {
	// ORM returns the executor bound to the connection.
	ORM() *orm.Database

	// CreateTables creates the tables of the given models if missing.
	CreateTables(ctx context.Context, models ...*schema.Model) error

	// TranslateError attaches the orm error class to a driver error.
	TranslateError(err error) error
	GetErrorCategory(err error) orm.ErrorCategory
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	// GracefulShutdown stops background work and closes the pool.
	GracefulShutdown() error
}

var (
	_ Client = (*postgres.Postgres)(nil)
	_ Client = (*mariadb.MariaDB)(nil)
	_ Client = (*sqlite.SQLite)(nil)
)

// monitored is implemented by the networked backends.
type monitored interface {
	MonitorConnection(ctx context.Context)
	RetryConnection(ctx context.Context)
}

// NewClient opens the backend selected by cfg.Type. A nil logger discards
// everything.
func NewClient(cfg Config, logger orm.Logger, opts ...orm.Option) (Client, error) {
	switch cfg.Type {
	case TypePostgres:
		if cfg.Postgres == nil {
			return nil, errMissingSection(cfg.Type)
		}
		pg, err := postgres.NewPostgres(*cfg.Postgres,
			postgres.WithLogger(logger),
			postgres.WithORMOptions(opts...),
		)
		if err != nil {
			return nil, err
		}
		return pg, nil

	case TypeMariaDB:
		if cfg.MariaDB == nil {
			return nil, errMissingSection(cfg.Type)
		}
		db, err := mariadb.NewMariaDB(*cfg.MariaDB,
			mariadb.WithLogger(logger),
			mariadb.WithORMOptions(opts...),
		)
		if err != nil {
			return nil, err
		}
		return db, nil

	case TypeSQLite:
		if cfg.SQLite == nil {
			return nil, errMissingSection(cfg.Type)
		}
		if logger != nil {
			opts = append([]orm.Option{orm.WithLogger(logger)}, opts...)
		}
		db, err := sqlite.NewSQLite(*cfg.SQLite, opts...)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database type: %s (must be 'postgres', 'mariadb' or 'sqlite')", cfg.Type)
}

func errMissingSection(typ string) error {
	return fmt.Errorf("%s config is required when type=%s", typ, typ)
}
