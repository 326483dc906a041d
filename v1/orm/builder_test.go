package orm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

var (
	people = schema.MustModel("people",
		schema.Int("id").PrimaryKey().AutoGenerated(),
		schema.Text("name"),
		schema.Int("age"),
		schema.Text("email").Nullable(),
		schema.Time("joined").Default(),
	)
	pets = schema.MustModel("pets",
		schema.Int("id").PrimaryKey(),
		schema.Text("name"),
	)

	personID     = MustField[int64](people, "id")
	personName   = MustField[string](people, "name")
	personAge    = MustField[int64](people, "age")
	personEmail  = MustField[*string](people, "email")
	personJoined = MustField[time.Time](people, "joined")
	petName      = MustField[string](pets, "name")

	nameAge = people.MustPatch("name_age", "name", "age")
)

// untouched returns an executor that fails the test on any call.
func untouched(t *testing.T) *MockExecutor {
	return NewMockExecutor(gomock.NewController(t))
}

func requireValidation(t *testing.T, err error, cause error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, IsValidation(err), "expected validation error, got %v", err)
	assert.ErrorIs(t, err, cause)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFieldOf(t *testing.T) {
	_, err := FieldOf[string](people, "age")
	requireValidation(t, err, ErrTypeMismatch)

	_, err = FieldOf[int64](people, "missing")
	requireValidation(t, err, ErrForeignField)

	_, err = RefField(people, "age")
	requireValidation(t, err, ErrTypeMismatch)

	f, err := TimeField(people, "joined")
	require.NoError(t, err)
	assert.Equal(t, "joined", f.Name())

	narrow, err := FieldOf[int32](people, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(7), narrow.Equals(7).(*Comparison).Value)

	assert.Panics(t, func() { MustField[bool](people, "name") })

	_, err = FieldOf[uint64](people, "age")
	requireValidation(t, err, ErrTypeMismatch)
	requireValidation(t, Assign(personAge.Schema(), uint64(1)<<63).err, ErrTypeMismatch)
}

func TestField_NullEquality(t *testing.T) {
	isNull, ok := personEmail.Equals(nil).(*Comparison)
	require.True(t, ok)
	assert.Equal(t, OpIsNull, isNull.Op)

	notNull, ok := personEmail.NotEquals(nil).(*Comparison)
	require.True(t, ok)
	assert.Equal(t, OpIsNotNull, notNull.Op)

	email := "a@b.c"
	eq := personEmail.Equals(&email).(*Comparison)
	assert.Equal(t, OpEq, eq.Op)
	assert.Equal(t, "a@b.c", eq.Value)
}

func TestCompare(t *testing.T) {
	ageField := personAge.Schema()
	ctx := context.Background()

	_, err := Select(untouched(t), people).Where(Compare(ageField, OpEq, "old")).All(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	_, err = Select(untouched(t), people).Where(Compare(ageField, OpIn, []any{1, "x"})).All(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	_, err = Select(untouched(t), people).Where(Compare(ageField, OpLike, int64(1))).All(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	c := Compare(ageField, OpGe, int16(3)).(*Comparison)
	assert.Equal(t, int64(3), c.Value)
	assert.Equal(t, "people.age >= 3", c.String())
}

func TestQuery_ConditionValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		cond  Condition
		cause error
	}{
		{"foreign field", petName.Equals("rex"), ErrForeignField},
		{"foreign field nested", And(personAge.GreaterThan(1), Or(Not(petName.IsNull()))), ErrForeignField},
		{"empty and", And(), ErrEmptyCondition},
		{"empty or inside and", And(personAge.LessThan(3), Or()), ErrEmptyCondition},
		{"nil", nil, ErrEmptyCondition},
		{"like on integer", personAge.Like("4%"), ErrTypeMismatch},
		{"ordering against null", personEmail.LessThan(nil), ErrTypeMismatch},
		{"in with null member", personEmail.In(nil), ErrTypeMismatch},
		{"hand-built equality with null", &Comparison{Field: personEmail.Schema(), Op: OpEq}, ErrTypeMismatch},
		{"unbound field", Field[int64]{}.Equals(1), ErrForeignField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(untouched(t), people).Where(tt.cond).All(ctx)
			requireValidation(t, err, tt.cause)
		})
	}
}

func TestQuery_Configuration(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		build func(b *QueryBuilder) *QueryBuilder
		cause error
	}{
		{"where twice", func(b *QueryBuilder) *QueryBuilder {
			return b.Where(personAge.Equals(1)).Where(personAge.Equals(2))
		}, ErrConditionAlreadySet},
		{"offset without limit", func(b *QueryBuilder) *QueryBuilder { return b.Offset(3) }, ErrOffsetWithoutLimit},
		{"limit twice", func(b *QueryBuilder) *QueryBuilder { return b.Limit(3).Limit(4) }, ErrAmbiguousLimit},
		{"range after limit", func(b *QueryBuilder) *QueryBuilder { return b.Limit(3).Range(0, 2) }, ErrAmbiguousRange},
		{"offset after range", func(b *QueryBuilder) *QueryBuilder { return b.Range(0, 2).Offset(1) }, ErrAmbiguousRange},
		{"limit after range", func(b *QueryBuilder) *QueryBuilder { return b.Range(0, 2).Limit(1) }, ErrAmbiguousRange},
		{"negative limit", func(b *QueryBuilder) *QueryBuilder { return b.Limit(-1) }, ErrInvalidBound},
		{"inverted range", func(b *QueryBuilder) *QueryBuilder { return b.Range(5, 2) }, ErrInvalidBound},
		{"foreign order", func(b *QueryBuilder) *QueryBuilder { return b.OrderBy(petName, Asc) }, ErrForeignField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build(Select(untouched(t), people)).All(ctx)
			requireValidation(t, err, tt.cause)
		})
	}
}

func TestQuery_LimitThenOneIsAmbiguous(t *testing.T) {
	ctx := context.Background()

	_, err := Select(untouched(t), people).Limit(1).One(ctx)
	requireValidation(t, err, ErrAmbiguousLimit)

	_, _, err = Select(untouched(t), people).Range(0, 1).Optional(ctx)
	requireValidation(t, err, ErrAmbiguousLimit)

	_, err = Select(untouched(t), people).Limit(10).Count(ctx)
	requireValidation(t, err, ErrAmbiguousLimit)
}

func TestQuery_FinalizeOnce(t *testing.T) {
	ctx := context.Background()
	b := Select(untouched(t), people).Limit(-1)

	_, err := b.All(ctx)
	requireValidation(t, err, ErrInvalidBound)

	_, err = b.Stream(ctx)
	requireValidation(t, err, ErrBuilderFinalized)
}

func TestQuery_Statement(t *testing.T) {
	b := Select(untouched(t), people).
		Where(And(personAge.GreaterEquals(18), personEmail.IsNotNull())).
		OrderBy(personJoined, Desc).
		Range(10, 30)

	stmt, err := b.Statement()
	require.NoError(t, err)
	assert.Same(t, people, stmt.Target)
	assert.Len(t, stmt.Columns, 5)
	assert.True(t, stmt.HasLimit)
	assert.Equal(t, int64(20), stmt.Limit)
	assert.Equal(t, int64(10), stmt.Offset)
	assert.Equal(t, []Order{{Field: personJoined.Schema(), Direction: Desc}}, stmt.OrderBy)
	assert.Equal(t, ShapeModel, b.Shape())
}

func TestSelectShapes(t *testing.T) {
	p := SelectPatch(untouched(t), nameAge)
	assert.Equal(t, ShapePatch, p.Shape())
	stmt, err := p.Statement()
	require.NoError(t, err)
	assert.Equal(t, nameAge.Fields(), stmt.Columns)

	tuple := SelectFields(untouched(t), personAge, personName)
	assert.Equal(t, ShapeTuple, tuple.Shape())
	stmt, err = tuple.Statement()
	require.NoError(t, err)
	assert.Equal(t, []*schema.Field{personAge.Schema(), personName.Schema()}, stmt.Columns)

	_, err = SelectFields(untouched(t), personAge, petName).Statement()
	requireValidation(t, err, ErrForeignField)

	_, err = SelectFields(untouched(t)).Statement()
	requireValidation(t, err, ErrArity)
}

func TestInsert_Validation(t *testing.T) {
	ctx := context.Background()
	nameOnly := people.MustPatch("name_only", "name")

	_, err := Insert(untouched(t), nameOnly).Single("ann").Exec(ctx)
	requireValidation(t, err, ErrMissingField)

	_, err = Insert(untouched(t), nameAge).Single("ann").Exec(ctx)
	requireValidation(t, err, ErrArity)

	_, err = Insert(untouched(t), nameAge).Single("ann", "old").Exec(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	_, err = Insert(untouched(t), nameAge).Bulk(Row("ann", 1), Row("bob", nil)).Exec(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	_, err = Insert(untouched(t), nameAge).Exec(ctx)
	requireValidation(t, err, ErrArity)

	_, err = Insert(untouched(t), nameAge).Bulk().Exec(ctx)
	requireValidation(t, err, ErrArity)

	_, err = Insert(untouched(t), nameAge).Single("a", 1).Single("b", 2).Exec(ctx)
	requireValidation(t, err, ErrArity)

	b := Insert(untouched(t), nameAge).Single("ann", 1)
	b.ReturnFields(personID)
	_, err = b.ReturnNothing().Exec(ctx)
	requireValidation(t, err, ErrReturningConflict)

	_, err = Insert(untouched(t), nameAge).Single("ann", 1).ReturnFields(petName).Exec(ctx)
	requireValidation(t, err, ErrForeignField)

	_, err = Insert(untouched(t), nameAge).Single("ann", 1).ReturnPatch(pets.All()).Exec(ctx)
	requireValidation(t, err, ErrForeignField)
}

func TestInsert_Statement(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	exec.EXPECT().Submit(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, stmt Statement) (*Result, error) {
		ins, ok := stmt.(*InsertStatement)
		require.True(t, ok)
		assert.False(t, ins.ReturnsRows())
		assert.Equal(t, [][]any{{"ann", int64(42)}, {"bob", int64(0)}}, ins.Rows)
		return &Result{RowsAffected: 2}, nil
	})

	n, err := Insert(exec, nameAge).Bulk(Row("ann", 42), Row("bob", uint8(0))).ReturnNothing().Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUpdate_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		build func(b *UpdateBuilder) *UpdateBuilder
		cause error
	}{
		{"no sets", func(b *UpdateBuilder) *UpdateBuilder { return b.Where(personID.Equals(1)) }, ErrNoOpUpdate},
		{"no target", func(b *UpdateBuilder) *UpdateBuilder { return b.Set(personAge.To(3)) }, ErrUnrestrictedUpdate},
		{"where and all", func(b *UpdateBuilder) *UpdateBuilder {
			return b.Set(personAge.To(3)).Where(personID.Equals(1)).All()
		}, ErrAmbiguousTarget},
		{"where twice", func(b *UpdateBuilder) *UpdateBuilder {
			return b.Set(personAge.To(3)).Where(personID.Equals(1)).Where(personID.Equals(2))
		}, ErrConditionAlreadySet},
		{"foreign assignment", func(b *UpdateBuilder) *UpdateBuilder { return b.Set(petName.To("rex")).All() }, ErrForeignField},
		{"null into required", func(b *UpdateBuilder) *UpdateBuilder { return b.Set(Assign(personName.Schema(), nil)).All() }, ErrTypeMismatch},
		{"wrong type", func(b *UpdateBuilder) *UpdateBuilder { return b.Set(Assign(personName.Schema(), 4)).All() }, ErrTypeMismatch},
		{"patch arity", func(b *UpdateBuilder) *UpdateBuilder { return b.SetPatch(nameAge, "x").All() }, ErrArity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build(Update(untouched(t), people)).Exec(ctx)
			requireValidation(t, err, tt.cause)
		})
	}
}

func TestUpdate_SetReplaces(t *testing.T) {
	stmt, err := Update(untouched(t), people).
		Set(personAge.To(1), personName.To("a")).
		Set(personAge.To(2)).
		SetPatch(nameAge, "b", 3).
		Set(personEmail.To(nil)).
		All().
		Statement()
	require.NoError(t, err)
	require.Len(t, stmt.Set, 3)
	assert.Equal(t, int64(3), stmt.Set[0].Value)
	assert.Equal(t, "b", stmt.Set[1].Value)
	assert.Nil(t, stmt.Set[2].Value)
	assert.Nil(t, stmt.Where)
}

func TestDynamicUpdate(t *testing.T) {
	acc := Update(untouched(t), people).Where(personID.Equals(7)).Dynamic()
	acc.SetIf(false, personName.To("skipped"))

	empty, err := acc.Close()
	assert.ErrorIs(t, err, ErrEmptyUpdate)
	assert.False(t, IsValidation(err))
	require.NotNil(t, empty)
	_, err = empty.Statement()
	requireValidation(t, err, ErrNoOpUpdate)

	// The accumulator is still usable after an empty close.
	acc.SetIf(true, personAge.To(30)).Set(personName.To("kim"))
	assert.Equal(t, 2, acc.Len())

	b, err := acc.Close()
	require.NoError(t, err)
	assert.Same(t, empty, b)
	stmt, err := b.Statement()
	require.NoError(t, err)
	assert.Len(t, stmt.Set, 2)

	_, err = acc.Close()
	requireValidation(t, err, ErrBuilderFinalized)
}

func TestDynamicUpdate_RecordsErrors(t *testing.T) {
	acc := Update(untouched(t), people).All().Dynamic()
	acc.Set(petName.To("rex")).Set(personAge.To(1))

	_, err := acc.Close()
	requireValidation(t, err, ErrForeignField)
}

func TestDelete_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Delete(untouched(t), people).Exec(ctx)
	requireValidation(t, err, ErrDeleteMode)

	_, err = Delete(untouched(t), people).Single(int64(1)).All().Exec(ctx)
	requireValidation(t, err, ErrDeleteMode)

	_, err = Delete(untouched(t), people).Where(personAge.LessThan(3)).Bulk(1, 2).Exec(ctx)
	requireValidation(t, err, ErrDeleteMode)

	_, err = Delete(untouched(t), people).Single("one").Exec(ctx)
	requireValidation(t, err, ErrTypeMismatch)

	_, err = Delete(untouched(t), people).Where(petName.Equals("x")).Exec(ctx)
	requireValidation(t, err, ErrForeignField)
}

func TestDelete_Statement(t *testing.T) {
	stmt, err := Delete(untouched(t), people).Bulk(1, 2, 3).Statement()
	require.NoError(t, err)
	c, ok := stmt.Where.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, OpIn, c.Op)
	assert.Same(t, people.PrimaryKey(), c.Field)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, c.Values)

	stmt, err = Delete(untouched(t), people).All().Statement()
	require.NoError(t, err)
	assert.Nil(t, stmt.Where)
}

func TestValidationError(t *testing.T) {
	err := invalid("Query.Offset", ErrOffsetWithoutLimit, "")
	assert.Equal(t, "orm: Query.Offset: offset requires a preceding limit", err.Error())

	err = invalid("Insert", ErrMissingField, "people requires %s", "age")
	assert.Equal(t, "orm: Insert: required field missing: people requires age", err.Error())
}

func TestConditionsAreReusable(t *testing.T) {
	cond := And(personAge.GreaterThan(10), Or(personName.Like("a%"), personEmail.IsNull()))

	s1, err := Select(untouched(t), people).Where(cond).Statement()
	require.NoError(t, err)
	s2, err := Delete(untouched(t), people).Where(cond).Statement()
	require.NoError(t, err)
	assert.Same(t, s1.Where, s2.Where)
	assert.Equal(t, "(people.age > 10 AND (people.name LIKE a% OR people.email IS NULL))", cond.String())
}
