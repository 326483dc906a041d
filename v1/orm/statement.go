package orm

import "github.com/Aleph-Alpha/orm/v1/schema"

// Kind classifies statements.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// Statement is a fully validated operation ready for compilation. Builders
// produce statements; compilers and executors consume them.
type Statement interface {
	Kind() Kind
	Model() *schema.Model
	ReturnsRows() bool
	statement()
}

// Aggregate replaces the projection of a select.
type Aggregate int

const (
	AggregateNone Aggregate = iota
	AggregateCount
	AggregateExists
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Order is one ordering term.
type Order struct {
	Field     *schema.Field
	Direction Direction
}

type SelectStatement struct {
	Target    *schema.Model
	Columns   []*schema.Field
	Where     Condition
	OrderBy   []Order
	Aggregate Aggregate

	// Limit applies only when HasLimit is set. Offset 0 means none.
	HasLimit bool
	Limit    int64
	Offset   int64
}

type InsertStatement struct {
	Target  *schema.Model
	Columns []*schema.Field

	// Rows holds one value per column for every inserted row.
	Rows [][]any

	// Returning lists the fields to read back; empty means none.
	Returning []*schema.Field
}

type UpdateStatement struct {
	Target *schema.Model
	Set    []Assignment

	// Where is nil for an update of every row.
	Where Condition
}

type DeleteStatement struct {
	Target *schema.Model

	// Where is nil for a delete of every row.
	Where Condition
}

func (*SelectStatement) Kind() Kind { return KindSelect }
func (*InsertStatement) Kind() Kind { return KindInsert }
func (*UpdateStatement) Kind() Kind { return KindUpdate }
func (*DeleteStatement) Kind() Kind { return KindDelete }

func (s *SelectStatement) Model() *schema.Model { return s.Target }
func (s *InsertStatement) Model() *schema.Model { return s.Target }
func (s *UpdateStatement) Model() *schema.Model { return s.Target }
func (s *DeleteStatement) Model() *schema.Model { return s.Target }

func (*SelectStatement) ReturnsRows() bool   { return true }
func (s *InsertStatement) ReturnsRows() bool { return len(s.Returning) > 0 }
func (*UpdateStatement) ReturnsRows() bool   { return false }
func (*DeleteStatement) ReturnsRows() bool   { return false }

func (*SelectStatement) statement() {}
func (*InsertStatement) statement() {}
func (*UpdateStatement) statement() {}
func (*DeleteStatement) statement() {}

// Fields returns every field a statement references, in no particular
// order. Compilers use it to check that nothing leaks in from another model.
func Fields(stmt Statement) []*schema.Field {
	var out []*schema.Field
	visit := func(f *schema.Field) { out = append(out, f) }
	switch s := stmt.(type) {
	case *SelectStatement:
		out = append(out, s.Columns...)
		for _, o := range s.OrderBy {
			out = append(out, o.Field)
		}
		walkFields(s.Where, visit)
	case *InsertStatement:
		out = append(out, s.Columns...)
		out = append(out, s.Returning...)
	case *UpdateStatement:
		for _, a := range s.Set {
			out = append(out, a.Field)
		}
		walkFields(s.Where, visit)
	case *DeleteStatement:
		walkFields(s.Where, visit)
	}
	return out
}
