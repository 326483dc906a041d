package schema

import (
	"fmt"
	"strings"
)

// Model is a declared entity mapping to one storage table.
// Models are immutable once NewModel returns.
type Model struct {
	name    string
	table   string
	fields  []*Field
	byName  map[string]*Field
	primary *Field
	patches map[string]*Patch
}

// NewModel declares a model whose table carries the model name.
func NewModel(name string, defs ...FieldDef) (*Model, error) {
	return NewTableModel(name, name, defs...)
}

// NewTableModel declares a model stored in the given table.
// Exactly one field must be annotated as primary key; composite keys are
// not supported.
func NewTableModel(name, table string, defs ...FieldDef) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: model without name", ErrInvalidModel)
	}
	if table == "" {
		table = name
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: model %q has no fields", ErrInvalidModel, name)
	}

	m := &Model{
		name:    name,
		table:   table,
		fields:  make([]*Field, 0, len(defs)),
		byName:  make(map[string]*Field, len(defs)),
		patches: make(map[string]*Patch),
	}
	columns := make(map[string]struct{}, len(defs))

	for i, d := range defs {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		if _, dup := m.byName[d.name]; dup {
			return nil, fmt.Errorf("%w: model %q declares field %q twice", ErrInvalidModel, name, d.name)
		}
		column := d.column
		if column == "" {
			column = d.name
		}
		if _, dup := columns[column]; dup {
			return nil, fmt.Errorf("%w: model %q maps column %q twice", ErrInvalidModel, name, column)
		}
		columns[column] = struct{}{}

		f := &Field{
			name:        d.name,
			column:      column,
			typ:         d.typ,
			keyType:     d.keyType,
			annotations: d.annotations,
			references:  d.references,
			model:       m,
			index:       i,
		}
		if f.Has(PrimaryKey) {
			if m.primary != nil {
				return nil, fmt.Errorf("%w: model %q declares more than one primary key (%s, %s)",
					ErrInvalidModel, name, m.primary.name, f.name)
			}
			m.primary = f
		}
		m.fields = append(m.fields, f)
		m.byName[f.name] = f
	}

	if m.primary == nil {
		return nil, fmt.Errorf("%w: model %q has no primary key", ErrInvalidModel, name)
	}
	return m, nil
}

// MustModel is like NewModel but panics on error. Use it for package-level
// declarations.
func MustModel(name string, defs ...FieldDef) *Model {
	m, err := NewModel(name, defs...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) Name() string  { return m.name }
func (m *Model) Table() string { return m.table }

// Fields returns the fields in declaration order. The slice must not be modified.
func (m *Model) Fields() []*Field { return m.fields }

// PrimaryKey returns the primary key field.
func (m *Model) PrimaryKey() *Field { return m.primary }

// Field looks up a field by name.
func (m *Model) Field(name string) (*Field, error) {
	f, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, m.name, name)
	}
	return f, nil
}

// Owns reports whether f is one of the model's own fields.
func (m *Model) Owns(f *Field) bool {
	return f != nil && f.model == m && f.index < len(m.fields) && m.fields[f.index] == f
}

// Patch declares a named subset of the model's fields. Declaring the same
// name twice returns the first declaration if the field lists match.
func (m *Model) Patch(name string, fieldNames ...string) (*Patch, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: patch of %q without name", ErrInvalidModel, m.name)
	}
	fields := make([]*Field, 0, len(fieldNames))
	seen := make(map[string]struct{}, len(fieldNames))
	for _, fn := range fieldNames {
		if _, dup := seen[fn]; dup {
			return nil, fmt.Errorf("%w: patch %q lists %q twice", ErrInvalidModel, name, fn)
		}
		seen[fn] = struct{}{}
		f, err := m.Field(fn)
		if err != nil {
			return nil, fmt.Errorf("patch %q: %w", name, err)
		}
		fields = append(fields, f)
	}

	if existing, ok := m.patches[name]; ok {
		if !existing.sameFields(fields) {
			return nil, fmt.Errorf("%w: patch %q redeclared with different fields", ErrInvalidModel, name)
		}
		return existing, nil
	}
	p := &Patch{name: name, model: m, fields: fields}
	m.patches[name] = p
	return p, nil
}

// MustPatch is like Patch but panics on error.
func (m *Model) MustPatch(name string, fieldNames ...string) *Patch {
	p, err := m.Patch(name, fieldNames...)
	if err != nil {
		panic(err)
	}
	return p
}

// LookupPatch returns a previously declared patch.
func (m *Model) LookupPatch(name string) (*Patch, bool) {
	p, ok := m.patches[name]
	return p, ok
}

// All returns a patch covering every field of the model in declaration order.
func (m *Model) All() *Patch {
	return &Patch{name: m.name, model: m, fields: m.fields}
}

func (m *Model) String() string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.name
	}
	return fmt.Sprintf("%s(%s)", m.name, strings.Join(names, ", "))
}
