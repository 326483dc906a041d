package orm

import (
	"fmt"
	"reflect"
	"time"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// FieldRef is anything that names a schema field. Field[T] implements it.
type FieldRef interface {
	Schema() *schema.Field
}

// Field is a typed handle to one field of a model. T is the Go type of the
// field's values; it is checked against the semantic type when the handle is
// created, so comparing with a value of the wrong type does not compile.
//
// Nullable fields may use a pointer type such as Field[*int64] so that To
// can assign NULL.
type Field[T any] struct {
	f *schema.Field
}

// FieldOf resolves a field of m and checks that T can carry its values.
func FieldOf[T any](m *schema.Model, name string) (Field[T], error) {
	f, err := m.Field(name)
	if err != nil {
		return Field[T]{}, invalid("FieldOf", ErrForeignField, "%v", err)
	}
	return Bind[T](f)
}

// Bind wraps an existing schema field.
func Bind[T any](f *schema.Field) (Field[T], error) {
	if f == nil {
		return Field[T]{}, invalid("FieldOf", ErrForeignField, "nil field")
	}
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if !f.AcceptsType(rt) {
		return Field[T]{}, invalid("FieldOf", ErrTypeMismatch, "%s is %v, not %v", f, f.ValueType(), rt)
	}
	return Field[T]{f: f}, nil
}

// MustField is like FieldOf but panics on error. It is meant for
// package-level field declarations next to the model.
func MustField[T any](m *schema.Model, name string) Field[T] {
	f, err := FieldOf[T](m, name)
	if err != nil {
		panic(err)
	}
	return f
}

func IntField(m *schema.Model, name string) (Field[int64], error)      { return FieldOf[int64](m, name) }
func FloatField(m *schema.Model, name string) (Field[float64], error)  { return FieldOf[float64](m, name) }
func StringField(m *schema.Model, name string) (Field[string], error)  { return FieldOf[string](m, name) }
func BoolField(m *schema.Model, name string) (Field[bool], error)      { return FieldOf[bool](m, name) }
func TimeField(m *schema.Model, name string) (Field[time.Time], error) { return FieldOf[time.Time](m, name) }
func BytesField(m *schema.Model, name string) (Field[[]byte], error)   { return FieldOf[[]byte](m, name) }

// RefField resolves a reference field carrying integer keys.
func RefField(m *schema.Model, name string) (Field[int64], error) {
	f, err := FieldOf[int64](m, name)
	if err != nil {
		return f, err
	}
	if f.f.Type() != schema.Reference {
		return Field[int64]{}, invalid("RefField", ErrTypeMismatch, "%s is not a reference", f.f)
	}
	return f, nil
}

// Schema returns the underlying schema field.
func (f Field[T]) Schema() *schema.Field { return f.f }

func (f Field[T]) Name() string { return f.f.Name() }

func (f Field[T]) String() string {
	if f.f == nil {
		return "<unbound field>"
	}
	return f.f.String()
}

// compare builds a leaf. A nil value turns equality into IS NULL and
// inequality into IS NOT NULL; ordering against NULL is rejected.
func (f Field[T]) compare(op Operator, v T) Condition {
	value := normalize(v)
	if value != nil {
		return &Comparison{Field: f.f, Op: op, Value: value}
	}
	switch op {
	case OpEq:
		return f.IsNull()
	case OpNe:
		return f.IsNotNull()
	}
	return &Comparison{Field: f.f, Op: op, err: invalid("Compare", ErrTypeMismatch, "%s %s NULL never matches", f, op)}
}

func (f Field[T]) Equals(v T) Condition        { return f.compare(OpEq, v) }
func (f Field[T]) NotEquals(v T) Condition     { return f.compare(OpNe, v) }
func (f Field[T]) LessThan(v T) Condition      { return f.compare(OpLt, v) }
func (f Field[T]) LessEquals(v T) Condition    { return f.compare(OpLe, v) }
func (f Field[T]) GreaterThan(v T) Condition   { return f.compare(OpGt, v) }
func (f Field[T]) GreaterEquals(v T) Condition { return f.compare(OpGe, v) }

// In matches any of vs. An empty list matches nothing. nil members are
// rejected; combine with IsNull instead.
func (f Field[T]) In(vs ...T) Condition {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = normalize(v)
		if values[i] == nil {
			return &Comparison{Field: f.f, Op: OpIn, err: invalid("In", ErrTypeMismatch, "%s IN with NULL member", f)}
		}
	}
	return &Comparison{Field: f.f, Op: OpIn, Values: values}
}

func (f Field[T]) IsNull() Condition    { return &Comparison{Field: f.f, Op: OpIsNull} }
func (f Field[T]) IsNotNull() Condition { return &Comparison{Field: f.f, Op: OpIsNotNull} }

// Like matches a SQL pattern. It is only valid on string fields.
func (f Field[T]) Like(pattern string) Condition {
	c := &Comparison{Field: f.f, Op: OpLike, Value: pattern}
	if f.f != nil && f.f.ValueType() != schema.String {
		c.err = invalid("Like", ErrTypeMismatch, "%s is not a string field", f.f)
	}
	return c
}

// To assigns v to the field in an update.
func (f Field[T]) To(v T) Assignment {
	return Assignment{Field: f.f, Value: normalize(v)}
}

// Asc and Desc build ordering terms.
func (f Field[T]) Asc() Order  { return Order{Field: f.f, Direction: Asc} }
func (f Field[T]) Desc() Order { return Order{Field: f.f, Direction: Desc} }

// Assignment sets one field in an update.
type Assignment struct {
	Field *schema.Field
	Value any

	err error
}

// Assign builds an assignment from an untyped field, checking the value
// against the field. nil assigns NULL and requires a nullable field.
func Assign(f *schema.Field, v any) Assignment {
	if f == nil {
		return Assignment{err: invalid("Assign", ErrForeignField, "assignment without field")}
	}
	if !f.Accepts(v) {
		return Assignment{Field: f, err: invalid("Assign", ErrTypeMismatch, "%s does not accept %T", f, v)}
	}
	return Assignment{Field: f, Value: normalize(v)}
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s = %v", a.Field, a.Value)
}

// normalize maps Go values onto the small set of types every driver
// understands: int64, float64, string, bool, time.Time, []byte and nil.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string, bool, time.Time, []byte:
		return v
	case int:
		return int64(x)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	if rv.Type() == reflect.TypeOf([]byte(nil)) {
		return rv.Bytes()
	}
	if t, ok := rv.Interface().(time.Time); ok {
		return t
	}
	return rv.Interface()
}

func normalizeAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = normalize(v)
	}
	return out
}
