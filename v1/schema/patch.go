package schema

// Patch is a named ordered subset of one model's fields. It references the
// fields, it does not own them.
type Patch struct {
	name   string
	model  *Model
	fields []*Field
}

func (p *Patch) Name() string     { return p.name }
func (p *Patch) Model() *Model    { return p.model }
func (p *Patch) Fields() []*Field { return p.fields }

// Contains reports whether f is part of the patch.
func (p *Patch) Contains(f *Field) bool {
	for _, pf := range p.fields {
		if pf == f {
			return true
		}
	}
	return false
}

// Missing returns the model fields that are not part of the patch, in
// declaration order.
func (p *Patch) Missing() []*Field {
	var out []*Field
	for _, f := range p.model.fields {
		if !p.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// HasPrimaryKey reports whether the patch includes the model's primary key.
func (p *Patch) HasPrimaryKey() bool {
	return p.Contains(p.model.primary)
}

func (p *Patch) sameFields(other []*Field) bool {
	if len(p.fields) != len(other) {
		return false
	}
	for i := range other {
		if p.fields[i] != other[i] {
			return false
		}
	}
	return true
}
