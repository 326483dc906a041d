package mariadb

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// Server error numbers the package distinguishes. MariaDB and MySQL share
// most of them; where they differ both are listed.
const (
	errDupEntry             = 1062
	errDupEntryWithKeyName  = 1586
	errRowIsReferenced      = 1451
	errNoReferencedRow      = 1452
	errRowIsReferencedOld   = 1217
	errNoReferencedRowOld   = 1216
	errBadNull              = 1048
	errNoDefaultForField    = 1364
	errCheckConstraint      = 3819
	errConstraintFailed     = 4025
	errLockDeadlock         = 1213
	errLockWaitTimeout      = 1205
	errQueryInterrupted     = 1317
	errStatementTimeout     = 1969
	errMaxExecutionTime     = 3024
	errTooManyConnections   = 1040
	errServerShutdown       = 1053
	errConnectionKilled     = 1927
	errDiskFull             = 1021
	errOutOfMemory          = 1037
	errOutOfSortMemory      = 1038
	errTableFull            = 1114
	errStorageEngine        = 1030
	errUnknownStorageEngine = 1286
)

// TranslateError attaches the orm error class matching a MariaDB/MySQL
// error. Errors that are not recognized are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return orm.Classify(orm.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return orm.Classify(orm.ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return orm.Classify(orm.ErrForeignKeyViolation, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn):
		return orm.Classify(orm.ErrConnection, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return orm.Classify(classify(myErr.Number), err)
	}
	return err
}

func classify(number uint16) error {
	switch number {
	case errDupEntry, errDupEntryWithKeyName:
		return orm.ErrDuplicateKey
	case errRowIsReferenced, errNoReferencedRow, errRowIsReferencedOld, errNoReferencedRowOld:
		return orm.ErrForeignKeyViolation
	case errBadNull, errNoDefaultForField:
		return orm.ErrNotNullViolation
	case errCheckConstraint, errConstraintFailed:
		return orm.ErrCheckViolation
	case errLockDeadlock:
		return orm.ErrDeadlock
	case errLockWaitTimeout:
		return orm.ErrLockTimeout
	case errQueryInterrupted, errStatementTimeout, errMaxExecutionTime:
		return orm.ErrStatementTimeout
	case errTooManyConnections, errServerShutdown, errConnectionKilled:
		return orm.ErrConnection
	case errDiskFull, errOutOfMemory, errOutOfSortMemory, errTableFull:
		return orm.ErrResourceExhausted
	case errStorageEngine, errUnknownStorageEngine:
		return orm.ErrInternal
	}
	return nil
}

// GetErrorCategory classifies a translated or raw MariaDB error.
func (m *MariaDB) GetErrorCategory(err error) orm.ErrorCategory {
	return orm.Categorize(TranslateError(err))
}

func (m *MariaDB) TranslateError(err error) error { return TranslateError(err) }
func (m *MariaDB) IsRetryable(err error) bool     { return orm.IsRetryable(TranslateError(err)) }
func (m *MariaDB) IsTemporary(err error) bool     { return orm.IsTemporary(TranslateError(err)) }
func (m *MariaDB) IsCritical(err error) bool      { return orm.IsCritical(TranslateError(err)) }
