package schema

import (
	"fmt"
	"reflect"
)

// Field is one typed column of a Model. Fields are created through FieldDef
// values passed to NewModel and are immutable afterwards.
type Field struct {
	name        string
	column      string
	typ         FieldType
	keyType     FieldType
	annotations Annotation
	references  string
	model       *Model
	index       int
}

// Name returns the declared field name.
func (f *Field) Name() string { return f.name }

// Column returns the storage column name.
func (f *Field) Column() string { return f.column }

// Type returns the semantic type.
func (f *Field) Type() FieldType { return f.typ }

// ValueType is the type values of this field carry. It equals Type except
// for references, which carry the key type of the referenced model.
func (f *Field) ValueType() FieldType {
	if f.typ == Reference {
		return f.keyType
	}
	return f.typ
}

func (f *Field) Annotations() Annotation { return f.annotations }

// Has reports whether all bits of a are set on the field.
func (f *Field) Has(a Annotation) bool { return f.annotations&a == a }

// References returns the target model name of a reference field.
func (f *Field) References() string { return f.references }

// Model returns the owning model.
func (f *Field) Model() *Model { return f.model }

// Index returns the position of the field in its model.
func (f *Field) Index() int { return f.index }

// Required reports whether an insert must provide a value for the field.
func (f *Field) Required() bool {
	return f.annotations&(Nullable|HasDefault|AutoGenerated) == 0
}

// AcceptsType reports whether Go values of type rt fit the field.
func (f *Field) AcceptsType(rt reflect.Type) bool {
	return f.ValueType().AcceptsType(rt)
}

// Accepts reports whether v may be written to the field. nil is accepted
// for nullable fields only.
func (f *Field) Accepts(v any) bool {
	if v == nil {
		return f.Has(Nullable)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return f.Has(Nullable) && f.AcceptsType(rv.Type())
	}
	return f.ValueType().Accepts(v)
}

func (f *Field) String() string {
	if f.model == nil {
		return f.name
	}
	return f.model.name + "." + f.name
}

// FieldDef declares a field. It is a value type; every modifier returns a copy.
type FieldDef struct {
	name        string
	column      string
	typ         FieldType
	keyType     FieldType
	annotations Annotation
	references  string
}

// Define starts a field declaration of the given type.
func Define(name string, typ FieldType) FieldDef {
	return FieldDef{name: name, typ: typ, keyType: Integer}
}

func Int(name string) FieldDef  { return Define(name, Integer) }
func Real(name string) FieldDef { return Define(name, Float) }
func Text(name string) FieldDef { return Define(name, String) }
func Bool(name string) FieldDef { return Define(name, Boolean) }
func Time(name string) FieldDef { return Define(name, Timestamp) }
func Blob(name string) FieldDef { return Define(name, Bytes) }

// Ref declares a foreign reference to the primary key of model target.
// The key type defaults to Integer, see KeyType.
func Ref(name, target string) FieldDef {
	d := Define(name, Reference)
	d.references = target
	return d
}

func (d FieldDef) Column(column string) FieldDef { d.column = column; return d }
func (d FieldDef) PrimaryKey() FieldDef          { d.annotations |= PrimaryKey; return d }
func (d FieldDef) Unique() FieldDef              { d.annotations |= Unique; return d }
func (d FieldDef) Nullable() FieldDef            { d.annotations |= Nullable; return d }
func (d FieldDef) Default() FieldDef             { d.annotations |= HasDefault; return d }
func (d FieldDef) AutoGenerated() FieldDef       { d.annotations |= AutoGenerated; return d }

// With adds arbitrary annotations.
func (d FieldDef) With(a Annotation) FieldDef { d.annotations |= a; return d }

// KeyType sets the value type carried by a reference field.
func (d FieldDef) KeyType(t FieldType) FieldDef { d.keyType = t; return d }

func (d FieldDef) validate() error {
	if d.name == "" {
		return fmt.Errorf("%w: field without name", ErrInvalidModel)
	}
	if _, ok := fieldTypeNames[d.typ]; !ok {
		return fmt.Errorf("%w: field %q has type %v", ErrUnknownType, d.name, d.typ)
	}
	if d.typ == Reference {
		if d.references == "" {
			return fmt.Errorf("%w: reference field %q has no target", ErrInvalidModel, d.name)
		}
		if d.keyType == Reference {
			return fmt.Errorf("%w: reference field %q cannot carry reference keys", ErrInvalidModel, d.name)
		}
	}
	if d.annotations&PrimaryKey != 0 && d.annotations&Nullable != 0 {
		return fmt.Errorf("%w: primary key %q cannot be nullable", ErrInvalidModel, d.name)
	}
	return nil
}
