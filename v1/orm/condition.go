package orm

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// Operator is a comparison operator of a condition leaf.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpIsNull
	OpIsNotNull
	OpLike
)

var operatorNames = [...]string{
	OpEq:        "=",
	OpNe:        "<>",
	OpLt:        "<",
	OpLe:        "<=",
	OpGt:        ">",
	OpGe:        ">=",
	OpIn:        "IN",
	OpIsNull:    "IS NULL",
	OpIsNotNull: "IS NOT NULL",
	OpLike:      "LIKE",
}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Condition is an immutable predicate tree. The concrete node types are
// *Comparison, *Junction and *Negation.
type Condition interface {
	fmt.Stringer
	condition()
}

// Comparison is a leaf: a field compared with a literal.
type Comparison struct {
	Field *schema.Field
	Op    Operator

	// Value is the operand of binary operators, Values the operand of OpIn.
	Value  any
	Values []any

	err error
}

// Logic combines the children of a Junction.
type Logic int

const (
	LogicAnd Logic = iota
	LogicOr
)

func (l Logic) String() string {
	if l == LogicOr {
		return "OR"
	}
	return "AND"
}

// Junction is an AND or OR over child conditions.
type Junction struct {
	Logic    Logic
	Children []Condition
}

// Negation inverts its child.
type Negation struct {
	Child Condition
}

func (*Comparison) condition() {}
func (*Junction) condition()   {}
func (*Negation) condition()   {}

// And combines conditions with AND. An empty And is rejected when used.
func And(conds ...Condition) Condition {
	return &Junction{Logic: LogicAnd, Children: append([]Condition(nil), conds...)}
}

// Or combines conditions with OR. An empty Or is rejected when used.
func Or(conds ...Condition) Condition {
	return &Junction{Logic: LogicOr, Children: append([]Condition(nil), conds...)}
}

// Not negates a condition.
func Not(cond Condition) Condition {
	return &Negation{Child: cond}
}

// Compare builds a leaf from an untyped field. The value is checked against
// the field's semantic type, so mismatches surface as ErrTypeMismatch when
// the condition is used. Prefer the methods of Field[T] where the field is
// known at compile time.
func Compare(f *schema.Field, op Operator, value any) Condition {
	c := &Comparison{Field: f, Op: op}
	switch op {
	case OpIsNull, OpIsNotNull:
	case OpIn:
		values, ok := value.([]any)
		if !ok {
			c.err = invalid("Compare", ErrTypeMismatch, "IN on %s expects []any, got %T", f, value)
			return c
		}
		for _, v := range values {
			if f != nil && !f.ValueType().Accepts(v) {
				c.err = invalid("Compare", ErrTypeMismatch, "%s does not accept %T", f, v)
				return c
			}
		}
		c.Values = normalizeAll(values)
	default:
		if f != nil && !f.ValueType().Accepts(value) {
			c.err = invalid("Compare", ErrTypeMismatch, "%s does not accept %T", f, value)
			return c
		}
		if op == OpLike && f != nil && f.ValueType() != schema.String {
			c.err = invalid("Compare", ErrTypeMismatch, "LIKE on non-string field %s", f)
			return c
		}
		c.Value = normalize(value)
	}
	return c
}

func (c *Comparison) String() string {
	name := "<nil>"
	if c.Field != nil {
		name = c.Field.String()
	}
	switch c.Op {
	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", name, c.Op)
	case OpIn:
		return fmt.Sprintf("%s IN %v", name, c.Values)
	}
	return fmt.Sprintf("%s %s %v", name, c.Op, c.Value)
}

func (j *Junction) String() string {
	parts := make([]string, len(j.Children))
	for i, child := range j.Children {
		if child == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, " "+j.Logic.String()+" ") + ")"
}

func (n *Negation) String() string {
	if n.Child == nil {
		return "NOT <nil>"
	}
	return "NOT " + n.Child.String()
}

// validateCondition checks a tree against the model a statement targets.
func validateCondition(op string, m *schema.Model, cond Condition) error {
	switch c := cond.(type) {
	case nil:
		return invalid(op, ErrEmptyCondition, "nil condition")
	case *Comparison:
		if c.err != nil {
			return c.err
		}
		if c.Field == nil {
			return invalid(op, ErrForeignField, "comparison without field")
		}
		if !m.Owns(c.Field) {
			return invalid(op, ErrForeignField, "%s is not a field of %s", c.Field, m.Name())
		}
		if c.Op == OpLike && c.Field.ValueType() != schema.String {
			return invalid(op, ErrTypeMismatch, "LIKE on non-string field %s", c.Field)
		}
		if c.Op != OpIsNull && c.Op != OpIsNotNull && c.Op != OpIn && c.Value == nil {
			return invalid(op, ErrTypeMismatch, "%s %s NULL never matches, use IsNull", c.Field, c.Op)
		}
		return nil
	case *Junction:
		if len(c.Children) == 0 {
			return invalid(op, ErrEmptyCondition, "%s without operands", c.Logic)
		}
		for _, child := range c.Children {
			if err := validateCondition(op, m, child); err != nil {
				return err
			}
		}
		return nil
	case *Negation:
		return validateCondition(op, m, c.Child)
	}
	return invalid(op, ErrEmptyCondition, "unsupported condition %T", cond)
}

func walkFields(cond Condition, fn func(*schema.Field)) {
	switch c := cond.(type) {
	case *Comparison:
		fn(c.Field)
	case *Junction:
		for _, child := range c.Children {
			walkFields(child, fn)
		}
	case *Negation:
		walkFields(c.Child, fn)
	}
}
