package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
)

// ErrUnsupported is returned for statements a dialect cannot express.
var ErrUnsupported = errors.New("dialect: unsupported statement")

// Dialect compiles statements to the SQL of one database family. It
// implements orm.Compiler and is safe for concurrent use.
type Dialect struct {
	name        string
	quote       byte
	placeholder func(n int) string
	returning   bool
	emptyInsert string
}

func dollar(n int) string { return "$" + strconv.Itoa(n) }
func question(int) string { return "?" }

var (
	// Postgres uses $n placeholders and double-quoted identifiers.
	Postgres = &Dialect{
		name:        "postgres",
		quote:       '"',
		placeholder: dollar,
		returning:   true,
		emptyInsert: "DEFAULT VALUES",
	}

	SQLite = &Dialect{
		name:        "sqlite",
		quote:       '"',
		placeholder: question,
		returning:   true,
		emptyInsert: "DEFAULT VALUES",
	}

	// MariaDB supports RETURNING on INSERT and DELETE since 10.5.
	MariaDB = &Dialect{
		name:        "mariadb",
		quote:       '`',
		placeholder: question,
		returning:   true,
		emptyInsert: "() VALUES ()",
	}

	// MySQL has no RETURNING; inserts must use ReturnNothing.
	MySQL = &Dialect{
		name:        "mysql",
		quote:       '`',
		placeholder: question,
		returning:   false,
		emptyInsert: "() VALUES ()",
	}
)

// ByName resolves a dialect from a configuration value.
func ByName(name string) (*Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mariadb":
		return MariaDB, nil
	case "mysql":
		return MySQL, nil
	}
	return nil, fmt.Errorf("dialect: unknown dialect %q", name)
}

func (d *Dialect) Name() string   { return d.name }
func (d *Dialect) String() string { return d.name }

// Quote quotes an identifier.
func (d *Dialect) Quote(ident string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// Compile renders stmt. Every field the statement references must belong to
// the statement's model.
func (d *Dialect) Compile(stmt orm.Statement) (string, []any, error) {
	m := stmt.Model()
	if m == nil {
		return "", nil, fmt.Errorf("dialect: %s without model", stmt.Kind())
	}
	for _, f := range orm.Fields(stmt) {
		if !m.Owns(f) {
			return "", nil, fmt.Errorf("dialect: %w: %v in %s of %s", orm.ErrForeignField, f, stmt.Kind(), m.Name())
		}
	}

	w := &writer{d: d}
	var err error
	switch s := stmt.(type) {
	case *orm.SelectStatement:
		err = w.selectStmt(s)
	case *orm.InsertStatement:
		err = w.insertStmt(s)
	case *orm.UpdateStatement:
		err = w.updateStmt(s)
	case *orm.DeleteStatement:
		err = w.deleteStmt(s)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupported, stmt)
	}
	if err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.args, nil
}

// CompileCondition renders a condition on its own, numbering placeholders
// from 1.
func (d *Dialect) CompileCondition(cond orm.Condition) (string, []any, error) {
	w := &writer{d: d}
	if err := w.condition(cond); err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.args, nil
}

type writer struct {
	d    *Dialect
	sb   strings.Builder
	args []any
}

func (w *writer) write(parts ...string) {
	for _, p := range parts {
		w.sb.WriteString(p)
	}
}

func (w *writer) bind(v any) {
	w.args = append(w.args, v)
	w.sb.WriteString(w.d.placeholder(len(w.args)))
}

func (w *writer) column(f *schema.Field) {
	w.sb.WriteString(w.d.Quote(f.Column()))
}

func (w *writer) columns(fields []*schema.Field) {
	for i, f := range fields {
		if i > 0 {
			w.write(", ")
		}
		w.column(f)
	}
}

func (w *writer) table(m *schema.Model) {
	w.sb.WriteString(w.d.Quote(m.Table()))
}

func (w *writer) where(cond orm.Condition) error {
	if cond == nil {
		return nil
	}
	w.write(" WHERE ")
	return w.condition(cond)
}

func (w *writer) selectStmt(s *orm.SelectStatement) error {
	w.write("SELECT ")
	switch s.Aggregate {
	case orm.AggregateCount:
		w.write("COUNT(*)")
	case orm.AggregateExists:
		w.write("1")
	default:
		if len(s.Columns) == 0 {
			return fmt.Errorf("%w: select without columns", ErrUnsupported)
		}
		w.columns(s.Columns)
	}
	w.write(" FROM ")
	w.table(s.Target)
	if err := w.where(s.Where); err != nil {
		return err
	}
	if len(s.OrderBy) > 0 && s.Aggregate == orm.AggregateNone {
		w.write(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				w.write(", ")
			}
			w.column(o.Field)
			w.write(" ", o.Direction.String())
		}
	}
	switch {
	case s.Aggregate == orm.AggregateExists:
		w.write(" LIMIT 1")
	case s.HasLimit:
		w.write(" LIMIT ", strconv.FormatInt(s.Limit, 10))
		if s.Offset > 0 {
			w.write(" OFFSET ", strconv.FormatInt(s.Offset, 10))
		}
	}
	return nil
}

func (w *writer) insertStmt(s *orm.InsertStatement) error {
	if len(s.Returning) > 0 && !w.d.returning {
		return fmt.Errorf("%w: %s has no RETURNING", ErrUnsupported, w.d.name)
	}
	if len(s.Rows) == 0 {
		return fmt.Errorf("%w: insert without rows", ErrUnsupported)
	}
	w.write("INSERT INTO ")
	w.table(s.Target)
	if len(s.Columns) == 0 {
		if len(s.Rows) > 1 {
			return fmt.Errorf("%w: multi-row insert without columns", ErrUnsupported)
		}
		w.write(" ", w.d.emptyInsert)
	} else {
		w.write(" (")
		w.columns(s.Columns)
		w.write(") VALUES ")
		for i, row := range s.Rows {
			if len(row) != len(s.Columns) {
				return fmt.Errorf("dialect: row %d has %d values for %d columns", i, len(row), len(s.Columns))
			}
			if i > 0 {
				w.write(", ")
			}
			w.write("(")
			for j, v := range row {
				if j > 0 {
					w.write(", ")
				}
				w.bind(v)
			}
			w.write(")")
		}
	}
	if len(s.Returning) > 0 {
		w.write(" RETURNING ")
		w.columns(s.Returning)
	}
	return nil
}

func (w *writer) updateStmt(s *orm.UpdateStatement) error {
	if len(s.Set) == 0 {
		return fmt.Errorf("%w: update without assignments", ErrUnsupported)
	}
	w.write("UPDATE ")
	w.table(s.Target)
	w.write(" SET ")
	for i, a := range s.Set {
		if i > 0 {
			w.write(", ")
		}
		w.column(a.Field)
		w.write(" = ")
		w.bind(a.Value)
	}
	return w.where(s.Where)
}

func (w *writer) deleteStmt(s *orm.DeleteStatement) error {
	w.write("DELETE FROM ")
	w.table(s.Target)
	return w.where(s.Where)
}

func (w *writer) condition(cond orm.Condition) error {
	switch c := cond.(type) {
	case *orm.Comparison:
		return w.comparison(c)
	case *orm.Junction:
		switch len(c.Children) {
		case 0:
			return fmt.Errorf("dialect: %w", orm.ErrEmptyCondition)
		case 1:
			return w.condition(c.Children[0])
		}
		w.write("(")
		for i, child := range c.Children {
			if i > 0 {
				w.write(" ", c.Logic.String(), " ")
			}
			if err := w.condition(child); err != nil {
				return err
			}
		}
		w.write(")")
		return nil
	case *orm.Negation:
		w.write("NOT (")
		if err := w.condition(c.Child); err != nil {
			return err
		}
		w.write(")")
		return nil
	}
	return fmt.Errorf("%w: condition %T", ErrUnsupported, cond)
}

func (w *writer) comparison(c *orm.Comparison) error {
	if c.Field == nil {
		return fmt.Errorf("dialect: %w: comparison without field", orm.ErrForeignField)
	}
	switch c.Op {
	case orm.OpIsNull, orm.OpIsNotNull:
		w.column(c.Field)
		w.write(" ", c.Op.String())
	case orm.OpIn:
		if len(c.Values) == 0 {
			w.write("1 = 0")
			return nil
		}
		w.column(c.Field)
		w.write(" IN (")
		for i, v := range c.Values {
			if i > 0 {
				w.write(", ")
			}
			w.bind(v)
		}
		w.write(")")
	case orm.OpEq, orm.OpNe, orm.OpLt, orm.OpLe, orm.OpGt, orm.OpGe, orm.OpLike:
		w.column(c.Field)
		w.write(" ", c.Op.String(), " ")
		w.bind(c.Value)
	default:
		return fmt.Errorf("%w: operator %v", ErrUnsupported, c.Op)
	}
	return nil
}
