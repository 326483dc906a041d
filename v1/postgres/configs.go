package postgres

import (
	"fmt"
	"time"
)

// Config holds everything needed to open and size the PostgreSQL pool.
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

	// SSLMode is passed through as the libpq sslmode parameter.
	// Default: "disable"
	SSLMode string
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

	// NativePool runs statements on a pgx connection pool instead of the
	// database/sql pool behind GORM. GORM stays available through DB().
	NativePool bool

	// HealthCheckInterval is the period of the connection monitor.
	// Default: 10 seconds
	HealthCheckInterval time.Duration
}

const (
	defaultMaxOpenConns        = 50
	defaultMaxIdleConns        = 25
	defaultConnMaxLifetime     = time.Minute
	defaultHealthCheckInterval = 10 * time.Second
	defaultSSLMode             = "disable"
)

func (c Connection) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, sslMode)
}
