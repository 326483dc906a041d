// Package mariadb connects the orm to MariaDB and MySQL.
//
// A *MariaDB owns a GORM connection pool opened through the
// go-sql-driver/mysql driver, monitors it, reconnects when health checks
// fail, and exposes an *orm.Database. ConnectionDetails.Dialect chooses
// between dialect.MariaDB, which returns inserted rows with RETURNING, and
// dialect.MySQL, which does not and therefore only supports ReturnNothing
// on inserts.
//
// Basic Usage:
//
//	db, err := mariadb.NewMariaDB(mariadb.Config{
//		Connection: mariadb.Connection{
//			Host:     "localhost",
//			Port:     "3306",
//			User:     "app",
//			Password: "secret",
//			DbName:   "app",
//		},
//	})
//	if err != nil {
//		return err
//	}
//	defer db.GracefulShutdown()
//
//	n, err := orm.Delete(db.ORM(), sessions).Where(expires.LessThan(time.Now())).Exec(ctx)
//
// Driver errors are classified by server error number; see TranslateError.
package mariadb
