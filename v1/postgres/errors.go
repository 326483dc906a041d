package postgres

import (
	"database/sql/driver"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// PostgreSQL SQLSTATE codes the package distinguishes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeNotNullViolation     = "23502"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeAdminShutdown        = "57P01"
	codeCrashShutdown        = "57P02"
	codeCannotConnectNow     = "57P03"
	codeTooManyConnections   = "53300"

	classConnectionException = "08"
	classInsufficientRes     = "53"
	classSystemError         = "58"
	classInternalError       = "XX"
)

// TranslateError attaches the orm error class matching a PostgreSQL error.
// It understands pgx errors, lib/pq errors and the errors GORM translates
// itself. Errors that are not recognized are returned unchanged.
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
	case errors.Is(err, driver.ErrBadConn):
		return orm.Classify(orm.ErrConnection, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return orm.Classify(classifySQLState(pgErr.Code), err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return orm.Classify(classifySQLState(string(pqErr.Code)), err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return orm.Classify(orm.ErrConnection, err)
	}
	if pgconn.Timeout(err) {
		return orm.Classify(orm.ErrStatementTimeout, err)
	}
	return err
}

func classifySQLState(code string) error {
	switch code {
	case codeUniqueViolation:
		return orm.ErrDuplicateKey
	case codeForeignKeyViolation:
		return orm.ErrForeignKeyViolation
	case codeNotNullViolation:
		return orm.ErrNotNullViolation
	case codeCheckViolation:
		return orm.ErrCheckViolation
	case codeSerializationFailure:
		return orm.ErrSerialization
	case codeDeadlockDetected:
		return orm.ErrDeadlock
	case codeLockNotAvailable:
		return orm.ErrLockTimeout
	case codeQueryCanceled:
		return orm.ErrStatementTimeout
	case codeAdminShutdown, codeCrashShutdown, codeCannotConnectNow, codeTooManyConnections:
		return orm.ErrConnection
	}

	if len(code) != 5 {
		return nil
	}
	switch code[:2] {
	case classConnectionException:
		return orm.ErrConnection
	case classInsufficientRes:
		return orm.ErrResourceExhausted
	case classSystemError, classInternalError:
		return orm.ErrInternal
	}
	return nil
}

// GetErrorCategory classifies a translated or raw PostgreSQL error.
func (p *Postgres) GetErrorCategory(err error) orm.ErrorCategory {
	return orm.Categorize(TranslateError(err))
}

func (p *Postgres) TranslateError(err error) error { return TranslateError(err) }

// IsRetryable reports whether the failed unit of work may succeed when run
// again: deadlocks, serialization failures and lost connections.
func (p *Postgres) IsRetryable(err error) bool { return orm.IsRetryable(TranslateError(err)) }

func (p *Postgres) IsTemporary(err error) bool { return orm.IsTemporary(TranslateError(err)) }
func (p *Postgres) IsCritical(err error) bool  { return orm.IsCritical(TranslateError(err)) }
