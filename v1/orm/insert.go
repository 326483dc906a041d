package orm

import (
	"context"
	"strings"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// InsertBuilder inserts rows shaped by a patch. By default every inserted
// row is read back in full; ReturnNothing, ReturnPrimaryKey, ReturnFields
// and ReturnPatch choose another policy. Only one policy may be chosen.
//
//	recs, err := orm.Insert(db, signup).
//	    Bulk(orm.Row("ann", 42), orm.Row("bob", 0)).
//	    Exec(ctx)
type InsertBuilder struct {
	exec  Executor
	patch *schema.Patch
	stmt  InsertStatement

	rowsSet      bool
	returningSet bool
	finalized    bool
	err          error
}

// Insert starts an insert of patch-shaped rows. Model fields missing from
// the patch must be nullable, defaulted or generated by the backend.
func Insert(exec Executor, p *schema.Patch) *InsertBuilder {
	m := p.Model()
	b := &InsertBuilder{
		exec:  exec,
		patch: p,
		stmt: InsertStatement{
			Target:    m,
			Columns:   p.Fields(),
			Returning: m.Fields(),
		},
	}
	var missing []string
	for _, f := range p.Missing() {
		if f.Required() {
			missing = append(missing, f.Name())
		}
	}
	if len(missing) > 0 {
		b.fail(invalid("Insert", ErrMissingField, "%s requires %s", m.Name(), strings.Join(missing, ", ")))
	}
	return b
}

// Row groups the values of one row in patch field order.
func Row(values ...any) []any { return values }

func (b *InsertBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Single inserts one row. Values follow the patch field order.
func (b *InsertBuilder) Single(values ...any) *InsertBuilder {
	return b.rows("Insert.Single", [][]any{values})
}

// Bulk inserts many rows in one statement.
func (b *InsertBuilder) Bulk(rows ...[]any) *InsertBuilder {
	if len(rows) == 0 {
		b.fail(invalid("Insert.Bulk", ErrArity, "no rows"))
		return b
	}
	if len(b.patch.Fields()) == 0 && len(rows) > 1 {
		b.fail(invalid("Insert.Bulk", ErrArity, "an empty patch inserts a single row"))
		return b
	}
	return b.rows("Insert.Bulk", rows)
}

func (b *InsertBuilder) rows(op string, rows [][]any) *InsertBuilder {
	if b.rowsSet {
		b.fail(invalid(op, ErrArity, "rows already given"))
		return b
	}
	b.rowsSet = true

	fields := b.patch.Fields()
	out := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(fields) {
			b.fail(invalid(op, ErrArity, "row %d has %d values, patch %q has %d fields",
				i, len(row), b.patch.Name(), len(fields)))
			return b
		}
		values := make([]any, len(row))
		for j, v := range row {
			if !fields[j].Accepts(v) {
				b.fail(invalid(op, ErrTypeMismatch, "row %d: %s does not accept %T", i, fields[j], v))
				return b
			}
			values[j] = normalize(v)
		}
		out[i] = values
	}
	b.stmt.Rows = out
	return b
}

func (b *InsertBuilder) returning(op string, fields []*schema.Field) {
	if b.returningSet {
		b.fail(invalid(op, ErrReturningConflict, ""))
		return
	}
	b.returningSet = true
	b.stmt.Returning = fields
}

// ReturnNothing executes the insert for its row count only.
func (b *InsertBuilder) ReturnNothing() *InsertCount {
	b.returning("Insert.ReturnNothing", nil)
	return &InsertCount{b: b}
}

// ReturnPrimaryKey reads back the primary key of every inserted row.
func (b *InsertBuilder) ReturnPrimaryKey() *InsertKeys {
	pk := b.stmt.Target.PrimaryKey()
	if pk == nil {
		b.fail(invalid("Insert.ReturnPrimaryKey", ErrNoPrimaryKey, "%s", b.stmt.Target.Name()))
	}
	b.returning("Insert.ReturnPrimaryKey", []*schema.Field{pk})
	return &InsertKeys{b: b}
}

// ReturnFields reads back a tuple of fields.
func (b *InsertBuilder) ReturnFields(fields ...FieldRef) *InsertBuilder {
	if len(fields) == 0 {
		b.fail(invalid("Insert.ReturnFields", ErrArity, "no fields"))
		return b
	}
	out := make([]*schema.Field, len(fields))
	for i, fr := range fields {
		f := fr.Schema()
		if !b.stmt.Target.Owns(f) {
			b.fail(invalid("Insert.ReturnFields", ErrForeignField, "%v is not a field of %s", fr, b.stmt.Target.Name()))
			return b
		}
		out[i] = f
	}
	b.returning("Insert.ReturnFields", out)
	return b
}

// ReturnPatch reads back the fields of a patch of the same model.
func (b *InsertBuilder) ReturnPatch(p *schema.Patch) *InsertBuilder {
	if p.Model() != b.stmt.Target {
		b.fail(invalid("Insert.ReturnPatch", ErrForeignField, "patch %q belongs to %s", p.Name(), p.Model().Name()))
		return b
	}
	if len(p.Fields()) == 0 {
		b.fail(invalid("Insert.ReturnPatch", ErrArity, "patch %q has no fields", p.Name()))
		return b
	}
	b.returning("Insert.ReturnPatch", p.Fields())
	return b
}

func (b *InsertBuilder) prepare(op string) (*InsertStatement, error) {
	if b.finalized {
		return nil, invalid(op, ErrBuilderFinalized, "")
	}
	b.finalized = true
	if b.err != nil {
		return nil, b.err
	}
	if !b.rowsSet {
		return nil, invalid(op, ErrArity, "no rows, call Single or Bulk")
	}
	return &b.stmt, nil
}

// Exec runs the insert and returns the inserted rows shaped by the
// returning policy.
func (b *InsertBuilder) Exec(ctx context.Context) ([]Record, error) {
	stmt, err := b.prepare("Insert.Exec")
	if err != nil {
		return nil, err
	}
	res, err := b.exec.Submit(ctx, stmt)
	if err != nil {
		return nil, err
	}
	cur, err := cursorFor(res, stmt.Returning)
	if err != nil {
		return nil, err
	}
	return cur.collect()
}

// InsertCount is an insert that returns the number of inserted rows.
type InsertCount struct {
	b *InsertBuilder
}

func (c *InsertCount) Exec(ctx context.Context) (int64, error) {
	stmt, err := c.b.prepare("Insert.Exec")
	if err != nil {
		return 0, err
	}
	res, err := c.b.exec.Submit(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if res.Rows != nil {
		_ = res.Rows.Close()
	}
	return res.RowsAffected, nil
}

// InsertKeys is an insert that returns the primary keys of inserted rows.
type InsertKeys struct {
	b *InsertBuilder
}

func (k *InsertKeys) Exec(ctx context.Context) ([]any, error) {
	recs, err := k.b.Exec(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]any, len(recs))
	for i, r := range recs {
		keys[i] = r.values[0]
	}
	return keys, nil
}
