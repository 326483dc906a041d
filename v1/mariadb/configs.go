package mariadb

import "time"

// Config holds everything needed to open and size the MariaDB/MySQL pool.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

type Connection struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string

	// Charset of the connection.
	// Default: "utf8mb4"
	Charset string

	// ParseTime makes the driver return DATETIME columns as time.Time.
	// The orm reads them either way.
	ParseTime bool

	// Loc is the time zone used for DATETIME values.
	// Default: "Local"
	Loc string

	// TLS is the name of a registered TLS config, or "true", "false",
	// "skip-verify" or "preferred".
	TLS string

	// Timeout, ReadTimeout and WriteTimeout are dial and I/O timeouts.
	Timeout      time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ConnectionDetails struct {
	// MaxOpenConns caps the pool.
	// Default: 50
	MaxOpenConns int

	// MaxIdleConns caps idle connections.
	// Default: 25
	MaxIdleConns int

	// ConnMaxLifetime recycles connections after this long.
	// Default: 1 minute
	ConnMaxLifetime time.Duration

	// Dialect selects the SQL flavour: "mariadb" uses RETURNING on inserts,
	// "mysql" does not support it.
	// Default: "mariadb"
	Dialect string

	// HealthCheckInterval is the period of the connection monitor.
	// Default: 10 seconds
	HealthCheckInterval time.Duration
}

const (
	defaultCharset             = "utf8mb4"
	defaultLoc                 = "Local"
	defaultDialect             = "mariadb"
	defaultMaxOpenConns        = 50
	defaultMaxIdleConns        = 25
	defaultConnMaxLifetime     = time.Minute
	defaultHealthCheckInterval = 10 * time.Second
)
