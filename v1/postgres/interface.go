package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
)

// Client is the surface of a managed PostgreSQL connection. Statements go
// through ORM(); DB() stays available for work the orm does not model.
type Client interface {
	ORM() *orm.Database
	DB() *gorm.DB
	CreateTables(ctx context.Context, models ...*schema.Model) error

	TranslateError(err error) error
	GetErrorCategory(err error) orm.ErrorCategory
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	GracefulShutdown() error
}

var _ Client = (*Postgres)(nil)
