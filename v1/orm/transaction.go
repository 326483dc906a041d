package orm

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// TxState is the lifecycle state of a transaction.
type TxState int32

const (
	TxActive TxState = iota
	TxCommitted
	TxRolledBack

	// TxFailed marks a transaction whose commit returned an error. Its
	// outcome is unknown.
	TxFailed
)

func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	case TxFailed:
		return "failed"
	}
	return fmt.Sprintf("TxState(%d)", int32(s))
}

var txCounter atomic.Uint64

// Transaction is one unit of work. Statements submitted to it run one after
// another on the same backend transaction and become visible to others
// only after Commit. A transaction leaves the active state exactly once;
// afterwards every call returns ErrTransactionClosed.
//
// A transaction must not be shared between goroutines that use it
// independently. Pass it, or a Guard of it, down the call chain instead.
type Transaction struct {
	id string
	db *Database
	tx TxTransport

	mu    sync.Mutex
	state atomic.Int32
	open  *cursorSlot
}

// cursorSlot holds the open cursor of a transaction. It is kept apart from
// the Transaction so that open rows do not keep the transaction reachable
// from its own finalizer.
type cursorSlot struct {
	rows atomic.Pointer[txRows]
}

func newTransaction(db *Database, tx TxTransport) *Transaction {
	t := &Transaction{
		id: fmt.Sprintf("tx-%d", txCounter.Add(1)),
		db: db,
		tx: tx,

		open: &cursorSlot{},
	}
	runtime.SetFinalizer(t, finalizeTransaction)
	return t
}

// finalizeTransaction rolls back a transaction that was dropped while still
// active.
func finalizeTransaction(t *Transaction) {
	if t.State() != TxActive {
		return
	}
	t.db.logger.Warn("transaction garbage collected while active, rolling back", nil,
		map[string]interface{}{"tx": t.id})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		// end logs a failed rollback and reports it to the observer.
		_ = t.end(ctx, "rollback")
	}()
}

// ID identifies the transaction in logs and observations.
func (t *Transaction) ID() string { return t.id }

// State returns the current lifecycle state.
func (t *Transaction) State() TxState { return TxState(t.state.Load()) }

// Compiler returns the dialect compiler of the owning database.
func (t *Transaction) Compiler() Compiler { return t.db.compiler }

// Guard returns a borrowing guard: its Commit, Rollback and Close leave the
// transaction alone.
func (t *Transaction) Guard() *Guard {
	return &Guard{tx: t}
}

// Submit runs a statement as a step of the transaction. A failed step
// leaves the transaction active. Rows of a returned result must be closed
// before the next step.
func (t *Transaction) Submit(ctx context.Context, stmt Statement) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != TxActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrTransactionClosed, t.id, t.State())
	}
	if t.open.rows.Load() != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionBusy, t.id)
	}
	res, err := t.db.submit(ctx, t.tx, stmt, t.id)
	if err != nil {
		return nil, err
	}
	if res.Rows != nil {
		rows := &txRows{Rows: res.Rows, slot: t.open}
		t.open.rows.Store(rows)
		res.Rows = rows
	}
	return res, nil
}

// Commit makes the transaction's effects visible. When the backend reports
// an error the transaction is closed in state TxFailed and the error wraps
// ErrCommitUncertain.
func (t *Transaction) Commit(ctx context.Context) error {
	return t.end(ctx, "commit")
}

// Rollback discards the transaction's effects.
func (t *Transaction) Rollback(ctx context.Context) error {
	return t.end(ctx, "rollback")
}

// Close rolls back an active transaction and does nothing otherwise. It is
// meant for defer.
func (t *Transaction) Close(ctx context.Context) error {
	if t.State() != TxActive {
		return nil
	}
	err := t.Rollback(ctx)
	if err != nil && t.State() != TxActive {
		// Lost a race with Commit or Rollback.
		return nil
	}
	return err
}

func (t *Transaction) end(ctx context.Context, op string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != TxActive {
		return fmt.Errorf("%w: %s is %s", ErrTransactionClosed, t.id, t.State())
	}
	if rows := t.open.rows.Load(); rows != nil {
		_ = rows.Close()
	}
	runtime.SetFinalizer(t, nil)

	start := time.Now()
	var err error
	if op == "commit" {
		err = t.tx.Commit(ctx)
	} else {
		err = t.tx.Rollback(ctx)
	}
	err = t.db.translateError(err)
	t.db.observe(ctx, op, "", t.id, time.Since(start), err, 0)

	fields := map[string]interface{}{"tx": t.id}
	switch {
	case err == nil && op == "commit":
		t.state.Store(int32(TxCommitted))
		t.db.logger.Debug("transaction committed", nil, fields)
		return nil
	case err == nil:
		t.state.Store(int32(TxRolledBack))
		t.db.logger.Debug("transaction rolled back", nil, fields)
		return nil
	case op == "commit":
		t.state.Store(int32(TxFailed))
		t.db.logger.Error("transaction commit failed", err, fields)
		return fmt.Errorf("%w: %s: %w", ErrCommitUncertain, t.id, err)
	default:
		// The backend discards an unfinished transaction on its own.
		t.state.Store(int32(TxRolledBack))
		t.db.logger.Warn("transaction rollback failed", err, fields)
		return fmt.Errorf("orm: rollback %s: %w", t.id, err)
	}
}

// txRows releases the transaction's cursor slot when closed.
type txRows struct {
	Rows
	slot *cursorSlot
	once sync.Once
}

func (r *txRows) Close() error {
	var err error
	r.once.Do(func() {
		err = r.Rows.Close()
		r.slot.rows.CompareAndSwap(r, nil)
	})
	return err
}
