package sqlite

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule provides *SQLite and its *orm.Database and closes the pool on
// stop.
//
//	app := fx.New(
//	    sqlite.FXModule,
//	    fx.Provide(func() sqlite.Config { return sqlite.Config{Path: "app.db"} }),
//	)
var FXModule = fx.Module("sqlite",
	fx.Provide(
		NewSQLiteWithDI,
		ProvideORM,
	),
	fx.Invoke(RegisterSQLiteLifecycle),
)

// SQLiteParams groups the dependencies of NewSQLiteWithDI.
type SQLiteParams struct {
	fx.In

	Config  Config
	Options []orm.Option `group:"orm_options"`
}

func NewSQLiteWithDI(params SQLiteParams) (*SQLite, error) {
	return NewSQLite(params.Config, params.Options...)
}

// ProvideORM exposes the executor of the database.
func ProvideORM(s *SQLite) *orm.Database {
	return s.ORM()
}

func RegisterSQLiteLifecycle(lc fx.Lifecycle, s *SQLite) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})
}
