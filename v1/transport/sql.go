package transport

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sqlExec(ctx context.Context, c sqlConn, query string, args []any) (int64, error) {
	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func sqlQuery(ctx context.Context, c sqlConn, query string, args []any) (orm.Rows, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SQLTransport runs statements on a database/sql pool.
type SQLTransport struct {
	db *sql.DB
}

// SQL wraps a *sql.DB.
func SQL(db *sql.DB) *SQLTransport {
	return &SQLTransport{db: db}
}

func (t *SQLTransport) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(ctx, t.db, query, args)
}

func (t *SQLTransport) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	return sqlQuery(ctx, t.db, query, args)
}

// Begin starts a transaction. database/sql rolls a transaction back when
// the context given to BeginTx is cancelled, so the transaction is detached
// from ctx; cancelling ctx only aborts the begin itself.
func (t *SQLTransport) Begin(ctx context.Context) (orm.TxTransport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := t.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(ctx, t.tx, query, args)
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	return sqlQuery(ctx, t.tx, query, args)
}

func (t *sqlTx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *sqlTx) Rollback(context.Context) error { return t.tx.Rollback() }
