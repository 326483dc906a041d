package transport

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxTransport runs statements on a pgx pool.
type PgxTransport struct {
	pool *pgxpool.Pool
}

// Pgx wraps a pgx connection pool.
func Pgx(pool *pgxpool.Pool) *PgxTransport {
	return &PgxTransport{pool: pool}
}

func pgxExec(ctx context.Context, c pgxConn, query string, args []any) (int64, error) {
	tag, err := c.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func pgxQuery(ctx context.Context, c pgxConn, query string, args []any) (orm.Rows, error) {
	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (t *PgxTransport) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return pgxExec(ctx, t.pool, query, args)
}

func (t *PgxTransport) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	return pgxQuery(ctx, t.pool, query, args)
}

func (t *PgxTransport) Begin(ctx context.Context) (orm.TxTransport, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return pgxExec(ctx, t.tx, query, args)
}

func (t *pgxTx) Query(ctx context.Context, query string, args ...any) (orm.Rows, error) {
	return pgxQuery(ctx, t.tx, query, args)
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// pgxRows reads rows through Values so that every column scans into *any
// regardless of its Postgres type.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Err() error { return r.rows.Err() }

func (r *pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}

func (r *pgxRows) Scan(dest ...any) error {
	values, err := r.rows.Values()
	if err != nil {
		return err
	}
	return assignValues(values, dest)
}
