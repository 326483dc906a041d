package orm

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// Record is one result row. Values follow the projection order and are
// normalized to int64, float64, string, bool, time.Time, []byte or nil
// according to the field's semantic type.
type Record struct {
	fields []*schema.Field
	values []any
}

func (r Record) Fields() []*schema.Field { return r.fields }
func (r Record) Values() []any           { return r.values }
func (r Record) Len() int                { return len(r.values) }

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for i, f := range r.fields {
		if f.Name() == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the record keyed by field name.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for i, f := range r.fields {
		out[f.Name()] = r.values[i]
	}
	return out
}

func (r Record) String() string {
	return fmt.Sprint(r.Map())
}

// Value reads a typed field from a record. A NULL reads as the zero value
// of T, which is nil for pointer types.
func Value[T any](r Record, f Field[T]) (T, error) {
	var zero T
	for i, rf := range r.fields {
		if rf != f.f {
			continue
		}
		v := r.values[i]
		if v == nil {
			return zero, nil
		}
		out, err := convertTo(reflect.TypeOf((*T)(nil)).Elem(), v)
		if err != nil {
			return zero, fmt.Errorf("orm: read %s: %w", rf, err)
		}
		return out.Interface().(T), nil
	}
	return zero, fmt.Errorf("orm: %w: %s is not part of the record", ErrForeignField, f)
}

// MustValue is like Value but panics on error.
func MustValue[T any](r Record, f Field[T]) T {
	v, err := Value(r, f)
	if err != nil {
		panic(err)
	}
	return v
}

func convertTo(rt reflect.Type, v any) (reflect.Value, error) {
	if rt.Kind() == reflect.Pointer {
		elem, err := convertTo(rt.Elem(), v)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(rt.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(rt) {
		return rv, nil
	}
	// reflect would turn integers into runes; only strings convert to strings.
	if (rt.Kind() == reflect.String) != (rv.Kind() == reflect.String) {
		return reflect.Value{}, fmt.Errorf("%w: cannot read %T as %v", ErrTypeMismatch, v, rt)
	}
	if rv.Type().ConvertibleTo(rt) {
		return rv.Convert(rt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot read %T as %v", ErrTypeMismatch, v, rt)
}

// scanRecord reads the current row of rows into a record.
func scanRecord(rows Rows, fields []*schema.Field) (Record, error) {
	raw := make([]any, len(fields))
	dest := make([]any, len(fields))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return Record{}, fmt.Errorf("orm: scan: %w", err)
	}
	values := make([]any, len(fields))
	for i, f := range fields {
		v, err := fromDriver(f.ValueType(), raw[i])
		if err != nil {
			return Record{}, fmt.Errorf("orm: scan %s: %w", f, err)
		}
		values[i] = v
	}
	return Record{fields: fields, values: values}, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// fromDriver converts a scanned driver value to the canonical Go type of t.
// Drivers differ: MySQL returns text as []byte, SQLite stores booleans as
// integers and may return timestamps as text.
func fromDriver(t schema.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok && t != schema.Bytes {
		v = string(b)
	}
	switch t {
	case schema.Integer:
		switch x := v.(type) {
		case int64:
			return x, nil
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
		if n, ok := asInt(v); ok {
			return n, nil
		}
	case schema.Float:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}
		if n, ok := asInt(v); ok {
			return float64(n), nil
		}
	case schema.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strconv.ParseBool(x)
		}
		if n, ok := asInt(v); ok {
			return n != 0, nil
		}
	case schema.Timestamp:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			for _, layout := range timeLayouts {
				if ts, err := time.Parse(layout, x); err == nil {
					return ts, nil
				}
			}
		}
	case schema.Bytes:
		switch x := v.(type) {
		case []byte:
			return append([]byte(nil), x...), nil
		case string:
			return []byte(x), nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected %T for %v", ErrTypeMismatch, v, t)
}

func asInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}
