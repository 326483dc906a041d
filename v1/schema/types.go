package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// FieldType is the semantic type of a model field.
type FieldType int

const (
	Integer FieldType = iota
	Float
	String
	Boolean
	Timestamp
	Bytes
	Reference
)

var fieldTypeNames = map[FieldType]string{
	Integer:   "integer",
	Float:     "float",
	String:    "string",
	Boolean:   "boolean",
	Timestamp: "timestamp",
	Bytes:     "bytes",
	Reference: "reference",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType resolves a type name as written in declarations.
func ParseFieldType(name string) (FieldType, error) {
	switch strings.ToLower(name) {
	case "integer", "int", "bigint":
		return Integer, nil
	case "float", "double", "real":
		return Float, nil
	case "string", "text":
		return String, nil
	case "boolean", "bool":
		return Boolean, nil
	case "timestamp", "time", "datetime":
		return Timestamp, nil
	case "bytes", "blob":
		return Bytes, nil
	case "reference", "ref":
		return Reference, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Annotation is a bitmask of column-level properties.
type Annotation uint8

const (
	PrimaryKey Annotation = 1 << iota
	Unique
	Nullable
	HasDefault
	AutoGenerated
)

func (a Annotation) String() string {
	var parts []string
	for _, p := range []struct {
		flag Annotation
		name string
	}{
		{PrimaryKey, "primary"},
		{Unique, "unique"},
		{Nullable, "nullable"},
		{HasDefault, "default"},
		{AutoGenerated, "auto"},
	} {
		if a&p.flag != 0 {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// AcceptsType reports whether Go values of type rt can carry values of the
// semantic type t. Pointer types are accepted when their element type is.
// Integers are stored as int64, so uint and uint64 are refused.
func (t FieldType) AcceptsType(rt reflect.Type) bool {
	if rt == nil {
		return false
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	switch t {
	case Integer:
		switch rt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint8, reflect.Uint16, reflect.Uint32:
			return true
		}
	case Float:
		return rt.Kind() == reflect.Float32 || rt.Kind() == reflect.Float64
	case String:
		return rt.Kind() == reflect.String
	case Boolean:
		return rt.Kind() == reflect.Bool
	case Timestamp:
		return rt == timeType
	case Bytes:
		return rt == bytesType
	}
	return false
}

// Accepts reports whether v can be stored in a field of type t.
// A nil value is never accepted here; nullability is a field property.
func (t FieldType) Accepts(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return false
	}
	return t.AcceptsType(rv.Type())
}
