package orm

import (
	"iter"
	"sync"

	"github.com/Aleph-Alpha/orm/v1/schema"
)

// Cursor streams the rows of a query. It is single-pass: once exhausted or
// closed it cannot be restarted and further iteration reports
// ErrCursorClosed. A cursor opened inside a transaction blocks further
// statements on it until closed.
//
//	cur, err := orm.Select(db, users).Stream(ctx)
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//	for cur.Next() {
//	    rec := cur.Record()
//	    ...
//	}
//	return cur.Err()
type Cursor struct {
	rows   Rows
	fields []*schema.Field

	current Record
	err     error
	done    bool

	closeOnce sync.Once
	closeErr  error
}

func newCursor(rows Rows, fields []*schema.Field) *Cursor {
	return &Cursor{rows: rows, fields: fields}
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred; the cursor is closed at that point.
func (c *Cursor) Next() bool {
	if c.done {
		if c.err == nil {
			c.err = ErrCursorClosed
		}
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.done = true
		if err := c.Close(); err != nil && c.err == nil {
			c.err = err
		}
		return false
	}
	rec, err := scanRecord(c.rows, c.fields)
	if err != nil {
		c.err = err
		c.done = true
		_ = c.Close()
		return false
	}
	c.current = rec
	return true
}

// Record returns the row Next moved to.
func (c *Cursor) Record() Record { return c.current }

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the underlying rows. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.closeOnce.Do(func() {
		c.done = true
		c.closeErr = c.rows.Close()
	})
	return c.closeErr
}

// Records iterates the remaining rows. Ranging over an exhausted cursor
// yields a single ErrCursorClosed.
func (c *Cursor) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if c.done {
			yield(Record{}, ErrCursorClosed)
			return
		}
		defer c.Close()
		for c.Next() {
			if !yield(c.current, nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(Record{}, err)
		}
	}
}

// collect drains the cursor.
func (c *Cursor) collect() ([]Record, error) {
	var out []Record
	for c.Next() {
		out = append(out, c.current)
	}
	return out, c.Err()
}
