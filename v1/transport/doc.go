// Package transport adapts database drivers to orm.Transport.
//
//	db := orm.New(transport.SQL(sqlDB), dialect.SQLite)
//	db := orm.New(transport.Gorm(gormDB), dialect.Postgres)
//	db := orm.New(transport.Pgx(pool), dialect.Postgres)
//
// GormFunc takes a getter instead of a handle so a connection that is
// swapped on reconnect, as v1/postgres does, is picked up by later
// statements.
package transport
