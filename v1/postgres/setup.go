package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/orm/v1/dialect"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/transport"
)

// Postgres owns a PostgreSQL connection pool, keeps it healthy, and exposes
// it as an orm executor.
//
// Concurrency: the active `*gorm.DB` pointer is stored in an atomic pointer and can be
// swapped during reconnection without blocking readers. The executor
// resolves the pointer on every statement, so a reconnect is picked up
// without rebuilding it.
type Postgres struct {
	cfg     Config
	logger  orm.Logger
	client  atomic.Pointer[gorm.DB]
	pool    *pgxpool.Pool
	orm     *orm.Database
	ormOpts []orm.Option

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// Option configures a Postgres instance.
type Option func(*Postgres)

// WithLogger routes connection events and executed statements to l.
func WithLogger(l orm.Logger) Option {
	return func(p *Postgres) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithORMOptions passes options through to the orm executor.
func WithORMOptions(opts ...orm.Option) Option {
	return func(p *Postgres) { p.ormOpts = append(p.ormOpts, opts...) }
}

// NewPostgres connects to PostgreSQL and builds the orm executor on top of
// the connection.
//
// Returns *Postgres concrete type (following Go best practice: "accept interfaces, return structs").
func NewPostgres(cfg Config, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		cfg:             cfg,
		logger:          orm.NopLogger(),
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(pg)
	}

	conn, err := pg.connect()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	pg.client.Store(conn)

	tr := orm.Transport(transport.GormFunc(pg.DB))
	if cfg.ConnectionDetails.NativePool {
		pg.pool, err = newPool(context.Background(), cfg)
		if err != nil {
			_ = pg.closeClient()
			return nil, err
		}
		tr = transport.Pgx(pg.pool)
	}

	ormOpts := append([]orm.Option{
		orm.WithLogger(pg.logger),
		orm.WithErrorTranslator(TranslateError),
	}, pg.ormOpts...)
	pg.orm = orm.New(tr, dialect.Postgres, ormOpts...)
	return pg, nil
}

// connect opens the GORM connection and configures the pool with the
// package defaults for unset fields.
func (p *Postgres) connect() (*gorm.DB, error) {
	database, err := gorm.Open(
		postgres.Open(p.cfg.Connection.dsn()),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Discard,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	details := p.cfg.ConnectionDetails
	maxOpen := details.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := details.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxLifetime := details.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = defaultConnMaxLifetime
	}

	databaseInstance.SetMaxOpenConns(maxOpen)
	databaseInstance.SetMaxIdleConns(maxIdle)
	databaseInstance.SetConnMaxLifetime(maxLifetime)

	p.logger.Info("connected to PostgreSQL", nil, map[string]interface{}{
		"host":     p.cfg.Connection.Host,
		"database": p.cfg.Connection.DbName,
	})
	return database, nil
}

func newPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Connection.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}
	if n := cfg.ConnectionDetails.MaxOpenConns; n > 0 {
		poolCfg.MaxConns = int32(n)
	}
	if d := cfg.ConnectionDetails.ConnMaxLifetime; d > 0 {
		poolCfg.MaxConnLifetime = d
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping pgx pool: %w", err)
	}
	return pool, nil
}

// DB returns the current GORM handle. It changes after a reconnect.
func (p *Postgres) DB() *gorm.DB {
	return p.client.Load()
}

// ORM returns the executor bound to this database.
func (p *Postgres) ORM() *orm.Database {
	return p.orm
}

// CreateTables creates the tables of the given models if they do not exist.
func (p *Postgres) CreateTables(ctx context.Context, models ...*schema.Model) error {
	for _, m := range models {
		if err := p.DB().WithContext(ctx).Exec(dialect.Postgres.CreateTable(m)).Error; err != nil {
			return fmt.Errorf("create table %s: %w", m.Table(), TranslateError(err))
		}
	}
	return nil
}

// RetryConnection continuously attempts to reconnect to the PostgreSQL database when notified
// of a connection failure. It operates as a goroutine that waits for signals on retryChanSignal
// before attempting reconnection. The function respects context cancellation and shutdown signals,
// ensuring graceful termination when requested.
//
// It implements two nested loops:
// - The outer loop waits for retry signals
// - The inner loop attempts reconnection until successful
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case err, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			p.logger.Warn("PostgreSQL health check failed, reconnecting", err)
		innerLoop:
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := p.connect()
					if err != nil {
						p.logger.Error("PostgreSQL reconnection failed", err)
						time.Sleep(time.Second)
						continue innerLoop
					}
					old := p.client.Swap(newConn)
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
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	interval := p.cfg.ConnectionDetails.HealthCheckInterval
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := p.healthCheck(); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck snapshots the current *gorm.DB and pings it with a 5 second
// timeout.
func (p *Postgres) healthCheck() error {
	dbConn := p.DB()
	if dbConn == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := dbConn.DB()
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

// GracefulShutdown stops the monitor loops and closes every pool.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})
	if p.pool != nil {
		p.pool.Close()
	}
	return p.closeClient()
}

func (p *Postgres) closeClient() error {
	return closeGorm(p.DB())
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
