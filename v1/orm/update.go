package orm

import (
	"context"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// UpdateBuilder updates rows of one model. It needs at least one
// assignment and exactly one of Where or All; an update of every row has to
// be asked for.
type UpdateBuilder struct {
	exec Executor
	stmt UpdateStatement

	whereSet  bool
	all       bool
	finalized bool
	err       error
}

// Update starts an update of m.
func Update(exec Executor, m *schema.Model) *UpdateBuilder {
	return &UpdateBuilder{exec: exec, stmt: UpdateStatement{Target: m}}
}

func (b *UpdateBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Set adds assignments. Assigning a field twice keeps the last value.
func (b *UpdateBuilder) Set(assignments ...Assignment) *UpdateBuilder {
	for _, a := range assignments {
		if err := b.check("Update.Set", a); err != nil {
			b.fail(err)
			return b
		}
		b.put(a)
	}
	return b
}

func (b *UpdateBuilder) check(op string, a Assignment) error {
	if a.err != nil {
		return a.err
	}
	if !b.stmt.Target.Owns(a.Field) {
		return invalid(op, ErrForeignField, "%s is not a field of %s", a.Field, b.stmt.Target.Name())
	}
	if a.Value == nil && !a.Field.Has(schema.Nullable) {
		return invalid(op, ErrTypeMismatch, "%s is not nullable", a.Field)
	}
	return nil
}

func (b *UpdateBuilder) put(a Assignment) {
	for i, existing := range b.stmt.Set {
		if existing.Field == a.Field {
			b.stmt.Set[i] = a
			return
		}
	}
	b.stmt.Set = append(b.stmt.Set, a)
}

// SetPatch assigns values to the fields of a patch, in patch order.
func (b *UpdateBuilder) SetPatch(p *schema.Patch, values ...any) *UpdateBuilder {
	if p.Model() != b.stmt.Target {
		b.fail(invalid("Update.SetPatch", ErrForeignField, "patch %q belongs to %s", p.Name(), p.Model().Name()))
		return b
	}
	fields := p.Fields()
	if len(values) != len(fields) {
		b.fail(invalid("Update.SetPatch", ErrArity, "patch %q has %d fields, got %d values",
			p.Name(), len(fields), len(values)))
		return b
	}
	for i, f := range fields {
		b.Set(Assign(f, values[i]))
	}
	return b
}

// Where restricts the update. It may be called once.
func (b *UpdateBuilder) Where(cond Condition) *UpdateBuilder {
	if b.whereSet {
		b.fail(invalid("Update.Where", ErrConditionAlreadySet, ""))
		return b
	}
	b.whereSet = true
	if err := validateCondition("Update.Where", b.stmt.Target, cond); err != nil {
		b.fail(err)
		return b
	}
	b.stmt.Where = cond
	return b
}

// All opts in to updating every row.
func (b *UpdateBuilder) All() *UpdateBuilder {
	b.all = true
	return b
}

// Dynamic opens an accumulator for assignments decided at runtime. The
// builder is handed back by Close once at least one assignment was made.
func (b *UpdateBuilder) Dynamic() *DynamicUpdate {
	return &DynamicUpdate{b: b}
}

// Statement returns the update the builder would run.
func (b *UpdateBuilder) Statement() (*UpdateStatement, error) {
	if err := b.validate("Update.Statement"); err != nil {
		return nil, err
	}
	stmt := b.stmt
	return &stmt, nil
}

func (b *UpdateBuilder) validate(op string) error {
	switch {
	case b.err != nil:
		return b.err
	case len(b.stmt.Set) == 0:
		return invalid(op, ErrNoOpUpdate, "%s", b.stmt.Target.Name())
	case b.whereSet && b.all:
		return invalid(op, ErrAmbiguousTarget, "")
	case !b.whereSet && !b.all:
		return invalid(op, ErrUnrestrictedUpdate, "")
	}
	return nil
}

// Exec runs the update and returns the number of affected rows.
func (b *UpdateBuilder) Exec(ctx context.Context) (int64, error) {
	if b.finalized {
		return 0, invalid("Update.Exec", ErrBuilderFinalized, "")
	}
	b.finalized = true
	if err := b.validate("Update.Exec"); err != nil {
		return 0, err
	}
	res, err := b.exec.Submit(ctx, &b.stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// DynamicUpdate accumulates assignments across branches.
//
//	acc := orm.Update(db, users).Where(id.Equals(7)).Dynamic()
//	acc.SetIf(req.Name != nil, name.To(*req.Name))
//	acc.SetIf(req.Age != nil, age.To(*req.Age))
//	upd, err := acc.Close()
//	if errors.Is(err, orm.ErrEmptyUpdate) {
//	    return nil // nothing to do
//	}
type DynamicUpdate struct {
	b      *UpdateBuilder
	sets   []Assignment
	closed bool
	err    error
}

// Set accumulates an assignment.
func (d *DynamicUpdate) Set(a Assignment) *DynamicUpdate {
	switch {
	case d.err != nil:
	case d.closed:
		d.err = invalid("DynamicUpdate.Set", ErrBuilderFinalized, "")
	default:
		if err := d.b.check("DynamicUpdate.Set", a); err != nil {
			d.err = err
			return d
		}
		d.sets = append(d.sets, a)
	}
	return d
}

// SetIf accumulates a only when ok is true.
func (d *DynamicUpdate) SetIf(ok bool, a Assignment) *DynamicUpdate {
	if !ok {
		return d
	}
	return d.Set(a)
}

// Len returns the number of accumulated assignments.
func (d *DynamicUpdate) Len() int { return len(d.sets) }

// Close hands the accumulated assignments to the builder. With none it
// returns the untouched builder with ErrEmptyUpdate and the accumulator
// stays open for more sets.
func (d *DynamicUpdate) Close() (*UpdateBuilder, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.closed {
		return nil, invalid("DynamicUpdate.Close", ErrBuilderFinalized, "")
	}
	if len(d.sets) == 0 {
		return d.b, ErrEmptyUpdate
	}
	d.closed = true
	for _, a := range d.sets {
		d.b.put(a)
	}
	return d.b, nil
}
