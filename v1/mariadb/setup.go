package mariadb

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/orm/v1/dialect"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/transport"
)

// MariaDB is a thread-safe wrapper around gorm.DB that provides connection monitoring,
// automatic reconnection, and an orm executor for MariaDB/MySQL.
// The client pointer is guarded by a mutex; the executor reads it through
// DB() on every statement so reconnects are picked up.
type MariaDB struct {
	client  *gorm.DB
	cfg     Config
	mu      *sync.RWMutex
	logger  orm.Logger
	dialect *dialect.Dialect
	orm     *orm.Database
	ormOpts []orm.Option

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// Option configures a MariaDB instance.
type Option func(*MariaDB)

// WithLogger routes connection events and executed statements to l.
func WithLogger(l orm.Logger) Option {
	return func(m *MariaDB) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithORMOptions passes options through to the orm executor.
func WithORMOptions(opts ...orm.Option) Option {
	return func(m *MariaDB) { m.ormOpts = append(m.ormOpts, opts...) }
}

// NewMariaDB creates a new MariaDB instance with the provided configuration.
// It establishes the initial database connection and builds the executor
// on top of it. If the initial connection fails, it returns an error.
func NewMariaDB(cfg Config, opts ...Option) (*MariaDB, error) {
	name := cfg.ConnectionDetails.Dialect
	if name == "" {
		name = defaultDialect
	}
	d, err := dialect.ByName(name)
	if err != nil {
		return nil, err
	}
	if d != dialect.MariaDB && d != dialect.MySQL {
		return nil, fmt.Errorf("mariadb: dialect %s is not a MySQL flavour", d)
	}

	m := &MariaDB{
		cfg:             cfg,
		mu:              &sync.RWMutex{},
		logger:          orm.NopLogger(),
		dialect:         d,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	conn, err := m.connect()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to MariaDB: %w", err)
	}
	m.client = conn

	ormOpts := append([]orm.Option{
		orm.WithLogger(m.logger),
		orm.WithErrorTranslator(TranslateError),
	}, m.ormOpts...)
	m.orm = orm.New(transport.GormFunc(m.DB), d, ormOpts...)
	return m, nil
}

// dsn builds the driver DSN with the package defaults applied.
func dsn(c Connection) (string, error) {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.DbName
	mc.ParseTime = c.ParseTime
	mc.Timeout = c.Timeout
	mc.ReadTimeout = c.ReadTimeout
	mc.WriteTimeout = c.WriteTimeout
	mc.TLSConfig = c.TLS

	charset := c.Charset
	if charset == "" {
		charset = defaultCharset
	}
	mc.Params = map[string]string{"charset": charset}

	locName := c.Loc
	if locName == "" {
		locName = defaultLoc
	}
	loc, err := time.LoadLocation(locName)
	if err != nil {
		return "", fmt.Errorf("mariadb: invalid location %q: %w", locName, err)
	}
	mc.Loc = loc

	return mc.FormatDSN(), nil
}

// connect opens the GORM connection and configures the pool with the
// package defaults for unset fields.
func (m *MariaDB) connect() (*gorm.DB, error) {
	source, err := dsn(m.cfg.Connection)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(
		gormmysql.Open(source),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Discard,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB/MySQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	details := m.cfg.ConnectionDetails
	maxOpenConns := details.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = defaultMaxOpenConns
	}
	maxIdleConns := details.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = defaultMaxIdleConns
	}
	connMaxLifetime := details.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = defaultConnMaxLifetime
	}

	databaseInstance.SetMaxOpenConns(maxOpenConns)
	databaseInstance.SetMaxIdleConns(maxIdleConns)
	databaseInstance.SetConnMaxLifetime(connMaxLifetime)

	m.logger.Info("connected to MariaDB/MySQL", nil, map[string]interface{}{
		"host":     m.cfg.Connection.Host,
		"database": m.cfg.Connection.DbName,
		"dialect":  m.dialect.Name(),
	})
	return database, nil
}

// DB returns the current GORM handle. It changes after a reconnect.
func (m *MariaDB) DB() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// ORM returns the executor bound to this database.
func (m *MariaDB) ORM() *orm.Database {
	return m.orm
}

// CreateTables creates the tables of the given models if they do not exist.
func (m *MariaDB) CreateTables(ctx context.Context, models ...*schema.Model) error {
	for _, model := range models {
		if err := m.DB().WithContext(ctx).Exec(m.dialect.CreateTable(model)).Error; err != nil {
			return fmt.Errorf("create table %s: %w", model.Table(), TranslateError(err))
		}
	}
	return nil
}

// RetryConnection continuously attempts to reconnect to the MariaDB database when notified
// of a connection failure. It operates as a goroutine that waits for signals on retryChanSignal
// before attempting reconnection. The function respects context cancellation and shutdown signals,
// ensuring graceful termination when requested.
//
// It implements two nested loops:
// - The outer loop waits for retry signals
// - The inner loop attempts reconnection until successful
func (m *MariaDB) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case err, ok := <-m.retryChanSignal:
			if !ok {
				return
			}
			m.logger.Warn("MariaDB health check failed, reconnecting", err)
		innerLoop:
			for {
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := m.connect()
					if err != nil {
						m.logger.Error("MariaDB reconnection failed", err)
						time.Sleep(time.Second)
						continue innerLoop
					}
					m.mu.Lock()
					old := m.client
					m.client = newConn
					m.mu.Unlock()
					_ = closeGorm(old)
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection periodically checks the health of the database connection
// and triggers reconnection attempts when necessary. It signals the
// RetryConnection goroutine when a failure is detected.
func (m *MariaDB) MonitorConnection(ctx context.Context) {
	defer m.closeRetryChanOnce.Do(func() {
		close(m.retryChanSignal)
	})

	interval := m.cfg.ConnectionDetails.HealthCheckInterval
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := m.healthCheck(); err != nil {
				select {
				case m.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck pings the current connection with a timeout of 5 seconds.
func (m *MariaDB) healthCheck() error {
	client := m.DB()
	if client == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := client.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// GracefulShutdown stops the monitor loops and closes the pool.
func (m *MariaDB) GracefulShutdown() error {
	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})
	return closeGorm(m.DB())
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
