package sqlite

import (
	"database/sql/driver"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// TranslateError attaches the orm error class matching a SQLite result code.
// Errors that are not recognized are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return orm.Classify(orm.ErrConnection, err)
	}

	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}
	return orm.Classify(classify(sqlErr.Code()), err)
}

func classify(code int) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return orm.ErrDuplicateKey
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return orm.ErrForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return orm.ErrNotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return orm.ErrCheckViolation
	}

	// Extended codes carry the primary code in the low byte.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return orm.ErrLockTimeout
	case sqlite3.SQLITE_INTERRUPT:
		return orm.ErrStatementTimeout
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
		return orm.ErrConnection
	case sqlite3.SQLITE_FULL, sqlite3.SQLITE_NOMEM:
		return orm.ErrResourceExhausted
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_INTERNAL:
		return orm.ErrInternal
	}
	return nil
}

// GetErrorCategory classifies a translated or raw SQLite error.
func (s *SQLite) GetErrorCategory(err error) orm.ErrorCategory {
	return orm.Categorize(TranslateError(err))
}

func (s *SQLite) TranslateError(err error) error { return TranslateError(err) }
func (s *SQLite) IsRetryable(err error) bool     { return orm.IsRetryable(TranslateError(err)) }
func (s *SQLite) IsTemporary(err error) bool     { return orm.IsTemporary(TranslateError(err)) }
func (s *SQLite) IsCritical(err error) bool      { return orm.IsCritical(TranslateError(err)) }
