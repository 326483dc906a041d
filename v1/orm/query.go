package orm

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// Shape is the result shape fixed by the projection of a query.
type Shape int

const (
	ShapeModel Shape = iota
	ShapePatch
	ShapeTuple
)

// QueryBuilder assembles a select. Configuration methods record the first
// error they encounter and return the builder; the error is reported by the
// finalizing call, which never reaches the backend in that case. A builder
// can be finalized once.
type QueryBuilder struct {
	exec  Executor
	stmt  SelectStatement
	shape Shape
	patch *schema.Patch

	whereSet  bool
	offsetSet bool
	rangeSet  bool
	finalized bool
	err       error
}

// Select queries every field of m.
func Select(exec Executor, m *schema.Model) *QueryBuilder {
	return &QueryBuilder{
		exec:  exec,
		stmt:  SelectStatement{Target: m, Columns: m.Fields()},
		shape: ShapeModel,
	}
}

// SelectPatch queries the fields of a patch.
func SelectPatch(exec Executor, p *schema.Patch) *QueryBuilder {
	b := &QueryBuilder{
		exec:  exec,
		stmt:  SelectStatement{Target: p.Model(), Columns: p.Fields()},
		shape: ShapePatch,
		patch: p,
	}
	if len(p.Fields()) == 0 {
		b.fail(invalid("SelectPatch", ErrArity, "patch %q has no fields", p.Name()))
	}
	return b
}

// SelectFields queries a tuple of fields. All fields must belong to the
// same model.
func SelectFields(exec Executor, fields ...FieldRef) *QueryBuilder {
	b := &QueryBuilder{exec: exec, shape: ShapeTuple}
	if len(fields) == 0 {
		b.fail(invalid("SelectFields", ErrArity, "no fields"))
		return b
	}
	cols := make([]*schema.Field, len(fields))
	for i, fr := range fields {
		f := fr.Schema()
		if f == nil {
			b.fail(invalid("SelectFields", ErrForeignField, "unbound field at position %d", i))
			return b
		}
		if i == 0 {
			b.stmt.Target = f.Model()
		} else if !b.stmt.Target.Owns(f) {
			b.fail(invalid("SelectFields", ErrForeignField, "%s is not a field of %s", f, b.stmt.Target.Name()))
			return b
		}
		cols[i] = f
	}
	b.stmt.Columns = cols
	return b
}

func (b *QueryBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Shape returns the result shape.
func (b *QueryBuilder) Shape() Shape { return b.shape }

// Where filters the query. It may be called once.
func (b *QueryBuilder) Where(cond Condition) *QueryBuilder {
	if b.whereSet {
		b.fail(invalid("Query.Where", ErrConditionAlreadySet, ""))
		return b
	}
	b.whereSet = true
	if b.stmt.Target == nil {
		return b
	}
	if err := validateCondition("Query.Where", b.stmt.Target, cond); err != nil {
		b.fail(err)
		return b
	}
	b.stmt.Where = cond
	return b
}

// Limit caps the number of rows.
func (b *QueryBuilder) Limit(n int64) *QueryBuilder {
	switch {
	case b.rangeSet:
		b.fail(invalid("Query.Limit", ErrAmbiguousRange, ""))
	case b.stmt.HasLimit:
		b.fail(invalid("Query.Limit", ErrAmbiguousLimit, ""))
	case n < 0:
		b.fail(invalid("Query.Limit", ErrInvalidBound, "limit %d", n))
	default:
		b.stmt.HasLimit = true
		b.stmt.Limit = n
	}
	return b
}

// Offset skips rows. It requires a preceding Limit.
func (b *QueryBuilder) Offset(n int64) *QueryBuilder {
	switch {
	case b.rangeSet:
		b.fail(invalid("Query.Offset", ErrAmbiguousRange, ""))
	case !b.stmt.HasLimit:
		b.fail(invalid("Query.Offset", ErrOffsetWithoutLimit, ""))
	case b.offsetSet:
		b.fail(invalid("Query.Offset", ErrAmbiguousLimit, "offset already set"))
	case n < 0:
		b.fail(invalid("Query.Offset", ErrInvalidBound, "offset %d", n))
	default:
		b.offsetSet = true
		b.stmt.Offset = n
	}
	return b
}

// Range selects rows [start, end). It excludes Limit and Offset.
func (b *QueryBuilder) Range(start, end int64) *QueryBuilder {
	switch {
	case b.rangeSet || b.stmt.HasLimit || b.offsetSet:
		b.fail(invalid("Query.Range", ErrAmbiguousRange, ""))
	case start < 0 || end < start:
		b.fail(invalid("Query.Range", ErrInvalidBound, "range [%d, %d)", start, end))
	default:
		b.rangeSet = true
		b.stmt.HasLimit = true
		b.stmt.Limit = end - start
		b.stmt.Offset = start
	}
	return b
}

// OrderBy appends an ordering term. Without any, row order is whatever the
// backend returns and may differ between calls.
func (b *QueryBuilder) OrderBy(f FieldRef, dir Direction) *QueryBuilder {
	sf := f.Schema()
	if b.stmt.Target != nil && !b.stmt.Target.Owns(sf) {
		b.fail(invalid("Query.OrderBy", ErrForeignField, "%v is not a field of %s", f, b.stmt.Target.Name()))
		return b
	}
	b.stmt.OrderBy = append(b.stmt.OrderBy, Order{Field: sf, Direction: dir})
	return b
}

// Statement returns the select the builder would run, or the recorded
// configuration error.
func (b *QueryBuilder) Statement() (*SelectStatement, error) {
	if b.err != nil {
		return nil, b.err
	}
	stmt := b.stmt
	return &stmt, nil
}

// SQL compiles the query without running it.
func (b *QueryBuilder) SQL() (string, []any, error) {
	stmt, err := b.Statement()
	if err != nil {
		return "", nil, err
	}
	return b.exec.Compiler().Compile(stmt)
}

func (b *QueryBuilder) finalize(op string) error {
	if b.finalized {
		return invalid(op, ErrBuilderFinalized, "")
	}
	b.finalized = true
	return b.err
}

func (b *QueryBuilder) open(ctx context.Context, stmt *SelectStatement) (*Cursor, error) {
	res, err := b.exec.Submit(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return cursorFor(res, stmt.Columns)
}

// All returns every matching row.
func (b *QueryBuilder) All(ctx context.Context) ([]Record, error) {
	if err := b.finalize("Query.All"); err != nil {
		return nil, err
	}
	cur, err := b.open(ctx, &b.stmt)
	if err != nil {
		return nil, err
	}
	return cur.collect()
}

// One returns exactly one row or an error wrapping ErrNotFound. It limits
// the query to one row itself and rejects an explicit limit.
func (b *QueryBuilder) One(ctx context.Context) (Record, error) {
	rec, ok, err := b.first(ctx, "Query.One")
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, b.stmt.Target.Name())
	}
	return rec, nil
}

// Optional returns the first matching row if there is one.
func (b *QueryBuilder) Optional(ctx context.Context) (Record, bool, error) {
	return b.first(ctx, "Query.Optional")
}

func (b *QueryBuilder) first(ctx context.Context, op string) (Record, bool, error) {
	if b.stmt.HasLimit {
		b.fail(invalid(op, ErrAmbiguousLimit, "limit is implied"))
	}
	if err := b.finalize(op); err != nil {
		return Record{}, false, err
	}
	stmt := b.stmt
	stmt.HasLimit = true
	stmt.Limit = 1
	cur, err := b.open(ctx, &stmt)
	if err != nil {
		return Record{}, false, err
	}
	defer cur.Close()
	if !cur.Next() {
		return Record{}, false, cur.Err()
	}
	return cur.Record(), true, nil
}

// Stream returns a cursor over the matching rows. The caller must close it.
func (b *QueryBuilder) Stream(ctx context.Context) (*Cursor, error) {
	if err := b.finalize("Query.Stream"); err != nil {
		return nil, err
	}
	return b.open(ctx, &b.stmt)
}

// Count returns the number of matching rows.
func (b *QueryBuilder) Count(ctx context.Context) (int64, error) {
	return b.aggregate(ctx, "Query.Count", AggregateCount)
}

// Exists reports whether any row matches.
func (b *QueryBuilder) Exists(ctx context.Context) (bool, error) {
	n, err := b.aggregate(ctx, "Query.Exists", AggregateExists)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var countField = schema.MustModel("count", schema.Int("n").PrimaryKey()).PrimaryKey()

func (b *QueryBuilder) aggregate(ctx context.Context, op string, agg Aggregate) (int64, error) {
	if b.stmt.HasLimit {
		b.fail(invalid(op, ErrAmbiguousLimit, "aggregates ignore limit and offset"))
	}
	if err := b.finalize(op); err != nil {
		return 0, err
	}
	stmt := b.stmt
	stmt.Aggregate = agg
	stmt.OrderBy = nil
	res, err := b.exec.Submit(ctx, &stmt)
	if err != nil {
		return 0, err
	}
	cur, err := cursorFor(res, []*schema.Field{countField})
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	n, _ := cur.Record().values[0].(int64)
	return n, nil
}

func cursorFor(res *Result, fields []*schema.Field) (*Cursor, error) {
	if res == nil || res.Rows == nil {
		return nil, fmt.Errorf("orm: executor returned no rows for a row-returning statement")
	}
	return newCursor(res.Rows, fields), nil
}
