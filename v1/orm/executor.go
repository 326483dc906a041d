package orm

import "context"

//go:generate mockgen -source=executor.go -destination=mock_executor.go -package=orm

// Rows is a forward-only result cursor returned by a transport.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Transport executes compiled SQL. Implementations live in v1/transport.
type Transport interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Begin(ctx context.Context) (TxTransport, error)
}

// TxTransport is a transport bound to one backend transaction.
type TxTransport interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Compiler turns a statement into dialect SQL and its positional arguments.
// Argument order matches placeholder order.
type Compiler interface {
	Compile(stmt Statement) (string, []any, error)
}

// Result is the outcome of a submitted statement. Rows is set when the
// statement returns rows, RowsAffected otherwise.
type Result struct {
	Rows         Rows
	RowsAffected int64
}

// Executor runs statements. *Database runs each statement in its own
// implicit transaction, *Transaction and *Guard run it as a step of an
// enclosing one. Builders only depend on this interface.
type Executor interface {
	Submit(ctx context.Context, stmt Statement) (*Result, error)
	Compiler() Compiler
}
