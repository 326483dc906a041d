// Package orm builds and runs typed SQL statements against models declared
// in v1/schema.
//
// Builders are created against an Executor, configured, then finalized:
//
//	users := schema.MustModel("users",
//	    schema.Int("id").PrimaryKey().AutoGenerated(),
//	    schema.Text("name"),
//	    schema.Int("age").Nullable(),
//	)
//	age := orm.MustField[int64](users, "age")
//
//	db := orm.New(transport.SQL(sqlDB), dialect.Postgres)
//	adults, err := orm.Select(db, users).
//	    Where(age.GreaterEquals(18)).
//	    OrderBy(age, orm.Desc).
//	    All(ctx)
//
// Configuration mistakes are recorded on the builder and returned by the
// finalizing call as a *ValidationError without touching the database.
// Every builder can be finalized once.
//
// # Executors
//
// *Database runs each statement on its own. *Transaction runs statements as
// steps of one unit of work that ends with Commit or Rollback; use
// Database.Transaction or a deferred Close so that an abandoned transaction
// rolls back. A Guard wraps a transaction and knows whether it may commit
// it, which lets helpers join a caller's transaction instead of nesting one.
//
// # Compilation and transport
//
// SQL generation lives in v1/dialect and the wire side in v1/transport. The
// core only depends on the Compiler and Transport interfaces.
package orm
