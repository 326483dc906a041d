// Package dialect renders orm statements as SQL.
//
// Postgres, SQLite, MariaDB and MySQL differ in placeholder syntax,
// identifier quoting and RETURNING support; everything else is shared.
// Arguments are returned in placeholder order and columns are taken from
// the field declarations, so a model may map fields to differently named
// columns.
//
//	sql, args, err := dialect.Postgres.Compile(stmt)
//	// SELECT "id", "name" FROM "users" WHERE "age" > $1 LIMIT 10
package dialect
