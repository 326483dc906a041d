package transport

import (
	"database/sql"
	"fmt"
)

// assignValues copies row values into Scan destinations. *any receives the
// value as is; other destinations go through sql.Scanner or a direct
// pointer assignment.
func assignValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("transport: %d columns, %d destinations", len(values), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *any:
			*p = values[i]
		case sql.Scanner:
			if err := p.Scan(values[i]); err != nil {
				return fmt.Errorf("transport: column %d: %w", i, err)
			}
		default:
			return fmt.Errorf("transport: column %d: unsupported destination %T", i, d)
		}
	}
	return nil
}
