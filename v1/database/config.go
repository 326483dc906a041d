package database

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Aleph-Alpha/orm/v1/mariadb"
	"github.com/Aleph-Alpha/orm/v1/postgres"
	"github.com/Aleph-Alpha/orm/v1/sqlite"
)

// Backend names accepted in Config.Type.
const (
	TypePostgres = "postgres"
	TypeMariaDB  = "mariadb"
	TypeSQLite   = "sqlite"
)

// Config contains configuration for database client creation.
// Use one of the helper functions (PostgresConfig, MariaDBConfig,
// SQLiteConfig) or LoadConfig to create it.
type Config struct {
	// Type is the database type ("postgres", "mariadb" or "sqlite")
	Type string

	// Postgres configuration (used when Type = "postgres")
	Postgres *postgres.Config

	// MariaDB configuration (used when Type = "mariadb")
	MariaDB *mariadb.Config

	// SQLite configuration (used when Type = "sqlite")
	SQLite *sqlite.Config
}

// PostgresConfig creates a database.Config for PostgreSQL.
//
// Example:
//
//	fx.Provide(func() database.Config {
//	    return database.PostgresConfig(postgres.Config{
//	        Connection: postgres.Connection{
//	            Host: "localhost",
//	            Port: "5432",
//	            // ...
//	        },
//	    })
//	})
func PostgresConfig(cfg postgres.Config) Config {
	return Config{
		Type:     TypePostgres,
		Postgres: &cfg,
	}
}

// MariaDBConfig creates a database.Config for MariaDB/MySQL.
func MariaDBConfig(cfg mariadb.Config) Config {
	return Config{
		Type:    TypeMariaDB,
		MariaDB: &cfg,
	}
}

// SQLiteConfig creates a database.Config for an embedded SQLite database.
func SQLiteConfig(cfg sqlite.Config) Config {
	return Config{
		Type:   TypeSQLite,
		SQLite: &cfg,
	}
}

// LoadConfig reads the database configuration from a file and the
// environment. Keys follow the struct fields, for example
// postgres.connection.host, and environment variables use the ORM prefix
// with dots replaced by underscores: ORM_POSTGRES_CONNECTION_HOST.
// Precedence is env > file > defaults. An empty path reads only the
// environment.
//
//	type: postgres
//	postgres:
//	  connection:
//	    host: db.internal
//	    port: "5432"
//	  connectiondetails:
//	    maxopenconns: 20
//	    connmaxlifetime: 5m
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Type = strings.ToLower(cfg.Type)

	// Defaults exist for every backend so the environment can reach them;
	// keep only the selected one.
	switch cfg.Type {
	case TypePostgres:
		cfg.MariaDB, cfg.SQLite = nil, nil
	case TypeMariaDB:
		cfg.Postgres, cfg.SQLite = nil, nil
	case TypeSQLite:
		cfg.Postgres, cfg.MariaDB = nil, nil
	default:
		return Config{}, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("type", TypeSQLite)

	for _, prefix := range []string{"postgres", "mariadb"} {
		v.SetDefault(prefix+".connection.host", "localhost")
		v.SetDefault(prefix+".connection.user", "")
		v.SetDefault(prefix+".connection.password", "")
		v.SetDefault(prefix+".connection.dbname", "")
		v.SetDefault(prefix+".connectiondetails.maxopenconns", 0)
		v.SetDefault(prefix+".connectiondetails.maxidleconns", 0)
		v.SetDefault(prefix+".connectiondetails.connmaxlifetime", "0s")
		v.SetDefault(prefix+".connectiondetails.healthcheckinterval", "0s")
	}
	v.SetDefault("postgres.connection.port", "5432")
	v.SetDefault("postgres.connection.sslmode", "disable")
	v.SetDefault("postgres.connectiondetails.nativepool", false)
	v.SetDefault("mariadb.connection.port", "3306")
	v.SetDefault("mariadb.connectiondetails.dialect", "mariadb")

	v.SetDefault("sqlite.path", "orm.db")
	v.SetDefault("sqlite.busytimeout", "5s")
	v.SetDefault("sqlite.journalmode", "WAL")
	v.SetDefault("sqlite.foreignkeys", false)
}
