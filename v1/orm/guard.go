package orm

import (
	"context"
	"fmt"
)

// Guard submits statements through a transaction while tracking who may end
// it. An owning guard, from Database.Guard, commits and rolls back the
// transaction it started. A borrowing guard, from Transaction.Guard, leaves
// that to the scope that began the transaction: its Commit, Rollback and
// Close do nothing.
//
// Shared code takes a guard so it works the same inside and outside an
// existing transaction:
//
//	func transfer(ctx context.Context, exec orm.Executor) error {
//	    g, err := orm.Acquire(ctx, exec)
//	    if err != nil {
//	        return err
//	    }
//	    defer g.Close(ctx)
//	    ...
//	    return g.Commit(ctx)
//	}
type Guard struct {
	tx    *Transaction
	owned bool
}

// Acquire returns a guard for exec. A *Database yields an owning guard over
// a new transaction; a *Transaction or *Guard yields a borrowing guard over
// the existing one.
func Acquire(ctx context.Context, exec Executor) (*Guard, error) {
	switch e := exec.(type) {
	case *Database:
		return e.Guard(ctx)
	case *Transaction:
		return e.Guard(), nil
	case *Guard:
		return e.tx.Guard(), nil
	}
	return nil, fmt.Errorf("orm: cannot acquire a guard from %T", exec)
}

// Owned reports whether the guard holds commit authority.
func (g *Guard) Owned() bool { return g.owned }

// Transaction returns the guarded transaction.
func (g *Guard) Transaction() *Transaction { return g.tx }

func (g *Guard) Submit(ctx context.Context, stmt Statement) (*Result, error) {
	return g.tx.Submit(ctx, stmt)
}

func (g *Guard) Compiler() Compiler { return g.tx.Compiler() }

// Commit commits an owned transaction and is a no-op on a borrowed one.
func (g *Guard) Commit(ctx context.Context) error {
	if !g.owned {
		return nil
	}
	return g.tx.Commit(ctx)
}

// Rollback rolls back an owned transaction and is a no-op on a borrowed
// one. Borrowers signal failure by returning an error to the owner.
func (g *Guard) Rollback(ctx context.Context) error {
	if !g.owned {
		return nil
	}
	return g.tx.Rollback(ctx)
}

// Close rolls back an owned transaction that is still active.
func (g *Guard) Close(ctx context.Context) error {
	if !g.owned {
		return nil
	}
	return g.tx.Close(ctx)
}
