package orm

import (
	"context"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

type deleteMode int

const (
	deleteUnset deleteMode = iota
	deleteSingle
	deleteBulk
	deleteWhere
	deleteAll
)

// DeleteBuilder deletes rows of one model. Exactly one of Single, Bulk,
// Where or All selects the rows.
type DeleteBuilder struct {
	exec Executor
	stmt DeleteStatement
	mode deleteMode

	finalized bool
	err       error
}

// Delete starts a delete from m.
func Delete(exec Executor, m *schema.Model) *DeleteBuilder {
	return &DeleteBuilder{exec: exec, stmt: DeleteStatement{Target: m}}
}

func (b *DeleteBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *DeleteBuilder) choose(op string, mode deleteMode) bool {
	if b.mode != deleteUnset {
		b.fail(invalid(op, ErrDeleteMode, "mode already chosen"))
		return false
	}
	b.mode = mode
	return true
}

func (b *DeleteBuilder) primaryKey(op string) *schema.Field {
	pk := b.stmt.Target.PrimaryKey()
	if pk == nil {
		b.fail(invalid(op, ErrNoPrimaryKey, "%s", b.stmt.Target.Name()))
	}
	return pk
}

// Single deletes the row with the given primary key.
func (b *DeleteBuilder) Single(key any) *DeleteBuilder {
	if !b.choose("Delete.Single", deleteSingle) {
		return b
	}
	pk := b.primaryKey("Delete.Single")
	if pk == nil {
		return b
	}
	b.stmt.Where = Compare(pk, OpEq, key)
	b.fail(validateCondition("Delete.Single", b.stmt.Target, b.stmt.Where))
	return b
}

// Bulk deletes the rows with the given primary keys.
func (b *DeleteBuilder) Bulk(keys ...any) *DeleteBuilder {
	if !b.choose("Delete.Bulk", deleteBulk) {
		return b
	}
	pk := b.primaryKey("Delete.Bulk")
	if pk == nil {
		return b
	}
	b.stmt.Where = Compare(pk, OpIn, keys)
	b.fail(validateCondition("Delete.Bulk", b.stmt.Target, b.stmt.Where))
	return b
}

// Where deletes the rows matching cond.
func (b *DeleteBuilder) Where(cond Condition) *DeleteBuilder {
	if !b.choose("Delete.Where", deleteWhere) {
		return b
	}
	if err := validateCondition("Delete.Where", b.stmt.Target, cond); err != nil {
		b.fail(err)
		return b
	}
	b.stmt.Where = cond
	return b
}

// All deletes every row.
func (b *DeleteBuilder) All() *DeleteBuilder {
	b.choose("Delete.All", deleteAll)
	return b
}

// Statement returns the delete the builder would run.
func (b *DeleteBuilder) Statement() (*DeleteStatement, error) {
	if err := b.validate("Delete.Statement"); err != nil {
		return nil, err
	}
	stmt := b.stmt
	return &stmt, nil
}

func (b *DeleteBuilder) validate(op string) error {
	if b.err != nil {
		return b.err
	}
	if b.mode == deleteUnset {
		return invalid(op, ErrDeleteMode, "none chosen")
	}
	return nil
}

// Exec runs the delete and returns the number of deleted rows.
func (b *DeleteBuilder) Exec(ctx context.Context) (int64, error) {
	if b.finalized {
		return 0, invalid("Delete.Exec", ErrBuilderFinalized, "")
	}
	b.finalized = true
	if err := b.validate("Delete.Exec"); err != nil {
		return 0, err
	}
	res, err := b.exec.Submit(ctx, &b.stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
