package orm

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/orm/v1/observability"
)

type queryer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Database is the auto-commit executor: every submitted statement is its own
// unit of work. It is safe for concurrent use.
type Database struct {
	transport Transport
	compiler  Compiler
	logger    Logger
	observer  observability.Observer
	translate func(error) error
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(db *Database) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithObserver reports every statement and transaction step to o. Repeated
// options add observers.
func WithObserver(o observability.Observer) Option {
	return func(db *Database) { db.observer = observability.Multi(db.observer, o) }
}

// WithErrorTranslator maps backend errors before they are wrapped and
// returned. Backend packages use it to attach the orm error classes.
func WithErrorTranslator(fn func(error) error) Option {
	return func(db *Database) { db.translate = fn }
}

// New creates a Database on top of a transport and a dialect compiler.
func New(transport Transport, compiler Compiler, opts ...Option) *Database {
	db := &Database{
		transport: transport,
		compiler:  compiler,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Compiler returns the dialect compiler.
func (db *Database) Compiler() Compiler { return db.compiler }

// Submit compiles and runs one statement.
func (db *Database) Submit(ctx context.Context, stmt Statement) (*Result, error) {
	return db.submit(ctx, db.transport, stmt, "")
}

func (db *Database) submit(ctx context.Context, q queryer, stmt Statement, txID string) (*Result, error) {
	query, args, err := db.compiler.Compile(stmt)
	if err != nil {
		return nil, fmt.Errorf("orm: compile %s: %w", stmt.Kind(), err)
	}
	fields := map[string]interface{}{
		"statement": query,
		"args":      len(args),
	}
	if txID != "" {
		fields["tx"] = txID
	}
	db.logger.Debug("executing statement", nil, fields)

	start := time.Now()
	res := &Result{}
	if stmt.ReturnsRows() {
		res.Rows, err = q.Query(ctx, query, args...)
	} else {
		res.RowsAffected, err = q.Exec(ctx, query, args...)
	}
	err = db.translateError(err)
	db.observe(ctx, stmt.Kind().String(), stmt.Model().Table(), txID, time.Since(start), err, res.RowsAffected)
	if err != nil {
		return nil, fmt.Errorf("orm: %s %s: %w", stmt.Kind(), stmt.Model().Name(), err)
	}
	return res, nil
}

func (db *Database) translateError(err error) error {
	if err == nil || db.translate == nil {
		return err
	}
	return db.translate(err)
}

func (db *Database) observe(ctx context.Context, operation, resource, txID string, d time.Duration, err error, size int64) {
	if db.observer == nil {
		return
	}
	db.observer.ObserveOperation(observability.OperationContext{
		Context:     ctx,
		Component:   "orm",
		Operation:   operation,
		Resource:    resource,
		SubResource: txID,
		Duration:    d,
		Error:       err,
		Size:        size,
	})
}

// Begin starts a transaction. The caller must end it with Commit, Rollback
// or Close; Transaction is the scoped alternative.
func (db *Database) Begin(ctx context.Context) (*Transaction, error) {
	start := time.Now()
	tx, err := db.transport.Begin(ctx)
	err = db.translateError(err)
	db.observe(ctx, "begin", "", "", time.Since(start), err, 0)
	if err != nil {
		return nil, fmt.Errorf("orm: begin: %w", err)
	}
	t := newTransaction(db, tx)
	db.logger.Debug("transaction started", nil, map[string]interface{}{"tx": t.id})
	return t, nil
}

// Guard starts a transaction wrapped in an owning guard: committing the
// guard commits the transaction.
func (db *Database) Guard(ctx context.Context) (*Guard, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Guard{tx: tx, owned: true}, nil
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back when fn returns an error or panics; a panic is re-raised
// after the rollback.
//
//	err := db.Transaction(ctx, func(tx *orm.Transaction) error {
//	    if _, err := orm.Insert(tx, signup).Single("ann", 42).Exec(ctx); err != nil {
//	        return err
//	    }
//	    _, err := orm.Update(tx, accounts).Set(balance.To(0)).Where(owner.Equals(7)).Exec(ctx)
//	    return err
//	})
func (db *Database) Transaction(ctx context.Context, fn func(tx *Transaction) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if tx.State() == TxActive {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
		return err
	}
	if tx.State() != TxActive {
		return nil
	}
	return tx.Commit(ctx)
}
