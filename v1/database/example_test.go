package database_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/orm/v1/database"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/postgres"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/sqlite"
)

var (
	tasks = schema.MustModel("tasks",
		schema.Int("id").PrimaryKey().AutoGenerated(),
		schema.Text("title"),
		schema.Bool("done").Default(),
	)
	taskTitle = orm.MustField[string](tasks, "title")
	taskDone  = orm.MustField[bool](tasks, "done")
)

// Example showing how to create a PostgreSQL config
func ExamplePostgresConfig() {
	cfg := database.PostgresConfig(postgres.Config{
		Connection: postgres.Connection{
			Host:   "localhost",
			Port:   "5432",
			User:   "myuser",
			DbName: "mydb",
		},
	})

	fmt.Println(cfg.Type)
	// Output: postgres
}

// Example showing backend-agnostic code running on SQLite
func ExampleNewClient() {
	dir, _ := os.MkdirTemp("", "orm-example")
	defer os.RemoveAll(dir)

	ctx := context.Background()
	client, err := database.NewClient(database.SQLiteConfig(sqlite.Config{
		Path: filepath.Join(dir, "tasks.db"),
	}), nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.GracefulShutdown()

	_ = client.CreateTables(ctx, tasks)
	db := client.ORM()
	_, _ = orm.Insert(db, tasks.MustPatch("new", "title")).
		Bulk(orm.Row("write docs"), orm.Row("ship")).
		ReturnNothing().
		Exec(ctx)
	_, _ = orm.Update(db, tasks).Set(taskDone.To(true)).Where(taskTitle.Equals("ship")).Exec(ctx)

	open, _ := orm.Select(db, tasks).Where(taskDone.Equals(false)).Count(ctx)
	fmt.Println(open)
	// Output: 1
}

func TestConfigHelpers(t *testing.T) {
	cfg := database.PostgresConfig(postgres.Config{})
	assert.Equal(t, database.TypePostgres, cfg.Type)
	assert.NotNil(t, cfg.Postgres)

	cfg = database.SQLiteConfig(sqlite.Config{Path: ":memory:"})
	assert.Equal(t, database.TypeSQLite, cfg.Type)
	require.NotNil(t, cfg.SQLite)
	assert.Equal(t, ":memory:", cfg.SQLite.Path)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := database.NewClient(database.Config{Type: "oracle"}, nil)
	assert.Error(t, err)

	_, err = database.NewClient(database.Config{Type: database.TypePostgres}, nil)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
type: postgres
postgres:
  connection:
    host: db.internal
    dbname: app
  connectiondetails:
    maxopenconns: 20
    connmaxlifetime: 5m
`), 0o600))

	t.Setenv("ORM_POSTGRES_CONNECTION_PASSWORD", "from-env")

	cfg, err := database.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, database.TypePostgres, cfg.Type)
	assert.Nil(t, cfg.MariaDB)
	assert.Nil(t, cfg.SQLite)
	require.NotNil(t, cfg.Postgres)

	conn := cfg.Postgres.Connection
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, "5432", conn.Port)
	assert.Equal(t, "app", conn.DbName)
	assert.Equal(t, "from-env", conn.Password)
	assert.Equal(t, 20, cfg.Postgres.ConnectionDetails.MaxOpenConns)
	assert.Equal(t, "5m0s", cfg.Postgres.ConnectionDetails.ConnMaxLifetime.String())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := database.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, database.TypeSQLite, cfg.Type)
	require.NotNil(t, cfg.SQLite)
	assert.Equal(t, "orm.db", cfg.SQLite.Path)
	assert.Equal(t, "WAL", cfg.SQLite.JournalMode)

	_, err = database.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFXModule(t *testing.T) {
	var db *orm.Database
	app := fxtest.New(t,
		database.FXModule,
		fx.Provide(func() database.Config {
			return database.SQLiteConfig(sqlite.Config{Path: filepath.Join(t.TempDir(), "fx.db")})
		}),
		fx.Populate(&db),
	)
	app.RequireStart()
	require.NotNil(t, db)

	_, err := orm.Select(db, tasks).Count(context.Background())
	assert.Error(t, err, "table was never created")
	app.RequireStop()
}
