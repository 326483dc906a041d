package dialect

import (
	"strings"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

type columnTypes struct {
	integer, float, text, boolean, timestamp, bytes string

	// autoKey replaces the whole column definition of an auto-generated
	// integer primary key.
	autoKey string
}

var ddlTypes = map[string]columnTypes{
	"postgres": {
		integer: "BIGINT", float: "DOUBLE PRECISION", text: "TEXT", boolean: "BOOLEAN",
		timestamp: "TIMESTAMPTZ", bytes: "BYTEA",
		autoKey: "BIGSERIAL PRIMARY KEY",
	},
	"sqlite": {
		integer: "INTEGER", float: "REAL", text: "TEXT", boolean: "BOOLEAN",
		timestamp: "TIMESTAMP", bytes: "BLOB",
		autoKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	},
	"mariadb": {
		integer: "BIGINT", float: "DOUBLE", text: "VARCHAR(255)", boolean: "BOOLEAN",
		timestamp: "DATETIME", bytes: "BLOB",
		autoKey: "BIGINT AUTO_INCREMENT PRIMARY KEY",
	},
}

func (d *Dialect) types() columnTypes {
	if t, ok := ddlTypes[d.name]; ok {
		return t
	}
	return ddlTypes["mariadb"]
}

func (d *Dialect) columnType(t schema.FieldType) string {
	ct := d.types()
	switch t {
	case schema.Integer:
		return ct.integer
	case schema.Float:
		return ct.float
	case schema.String:
		return ct.text
	case schema.Boolean:
		return ct.boolean
	case schema.Timestamp:
		return ct.timestamp
	case schema.Bytes:
		return ct.bytes
	}
	return ct.text
}

func (d *Dialect) defaultValue(t schema.FieldType) string {
	switch t {
	case schema.Integer, schema.Float:
		return "0"
	case schema.String:
		return "''"
	case schema.Boolean:
		return "FALSE"
	case schema.Timestamp:
		return "CURRENT_TIMESTAMP"
	}
	return ""
}

// CreateTable renders a CREATE TABLE IF NOT EXISTS statement for m. Fields
// marked HasDefault get the zero value of their type as default, timestamps
// the current time. Reference fields become plain key columns without a
// foreign key constraint.
func (d *Dialect) CreateTable(m *schema.Model) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(d.Quote(m.Table()))
	sb.WriteString(" (")
	for i, f := range m.Fields() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.Quote(f.Column()))
		sb.WriteString(" ")
		if f.Has(schema.PrimaryKey|schema.AutoGenerated) && f.ValueType() == schema.Integer {
			sb.WriteString(d.types().autoKey)
			continue
		}
		sb.WriteString(d.columnType(f.ValueType()))
		if f.Has(schema.PrimaryKey) {
			sb.WriteString(" PRIMARY KEY")
			continue
		}
		if !f.Has(schema.Nullable) {
			sb.WriteString(" NOT NULL")
		}
		if f.Has(schema.Unique) {
			sb.WriteString(" UNIQUE")
		}
		if f.Has(schema.HasDefault) || f.Has(schema.AutoGenerated) {
			if v := d.defaultValue(f.ValueType()); v != "" {
				sb.WriteString(" DEFAULT ")
				sb.WriteString(v)
			}
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// DropTable renders a DROP TABLE IF EXISTS statement for m.
func (d *Dialect) DropTable(m *schema.Model) string {
	return "DROP TABLE IF EXISTS " + d.Quote(m.Table())
}
