package transport

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

var errNoConnPool = errors.New("transport: gorm handle has no connection pool")

// GormTransport runs statements on the connection pool behind a *gorm.DB.
// Statements bypass GORM's own builder; only its pool and transactions are
// used.
type GormTransport struct {
	db func() *gorm.DB
}

// Gorm wraps a fixed *gorm.DB.
func Gorm(db *gorm.DB) *GormTransport {
	return &GormTransport{db: func() *gorm.DB { return db }}
}

// GormFunc wraps a getter that returns the current *gorm.DB.
func GormFunc(db func() *gorm.DB) *GormTransport {
	return &GormTransport{db: db}
}

func gormPool(db *gorm.DB) (gorm.ConnPool, error) {
	if db == nil || db.Statement == nil || db.Statement.ConnPool == nil {
		return nil, errNoConnPool
	}
	return db.Statement.ConnPool, nil
}

func (t *GormTransport) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := gormPool(t.db())
	if err != nil {
		return 0, err
	}
	return sqlExec(ctx, pool, query, args)
}

func (t *GormTransport) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	pool, err := gormPool(t.db())
	if err != nil {
		return nil, err
	}
	return sqlQuery(ctx, pool, query, args)
}

func (t *GormTransport) Begin(ctx context.Context) (orm.TxTransport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db := t.db()
	if db == nil {
		return nil, errNoConnPool
	}
	tx := db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{tx: tx}, nil
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := gormPool(t.tx)
	if err != nil {
		return 0, err
	}
	return sqlExec(ctx, pool, query, args)
}

func (t *gormTx) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	pool, err := gormPool(t.tx)
	if err != nil {
		return nil, err
	}
	return sqlQuery(ctx, pool, query, args)
}

func (t *gormTx) Commit(context.Context) error   { return t.tx.Commit().Error }
func (t *gormTx) Rollback(context.Context) error { return t.tx.Rollback().Error }
