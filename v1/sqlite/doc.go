// Package sqlite provides an embedded SQL database for the orm, backed by
// the pure Go driver modernc.org/sqlite.
//
// It suits tests, tools and single-node services:
//
//	db, err := sqlite.NewSQLite(sqlite.Config{Path: "app.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.CreateTables(ctx, users); err != nil {
//	    return err
//	}
//	recs, err := orm.Select(db.ORM(), users).All(ctx)
//
// Connections use WAL journaling and a busy timeout by default so that
// readers are not blocked by an open write transaction.
package sqlite
