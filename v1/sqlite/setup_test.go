package sqlite

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
)

var notes = schema.MustModel("notes",
	schema.Int("id").PrimaryKey().AutoGenerated(),
	schema.Text("body"),
)

func TestDSN(t *testing.T) {
	raw := dsn(Config{Path: "/tmp/x.db", BusyTimeout: 2 * time.Second, ForeignKeys: true})
	require.True(t, strings.HasPrefix(raw, "file:/tmp/x.db?"))

	q, err := url.ParseQuery(strings.SplitN(raw, "?", 2)[1])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"busy_timeout(2000)", "journal_mode(WAL)", "foreign_keys(1)"}, q["_pragma"])
	assert.Equal(t, "sqlite", q.Get("_time_format"))
}

func TestNewSQLite(t *testing.T) {
	_, err := NewSQLite(Config{})
	assert.Error(t, err)

	ctx := context.Background()
	db, err := NewSQLite(Config{Path: filepath.Join(t.TempDir(), "notes.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateTables(ctx, notes))
	recs, err := orm.Insert(db.ORM(), notes.MustPatch("new", "body")).Single("hello").Exec(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	body, _ := recs[0].Get("body")
	assert.Equal(t, "hello", body)
}

func TestFXModule(t *testing.T) {
	var database *orm.Database

	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config {
			return Config{Path: filepath.Join(t.TempDir(), "fx.db")}
		}),
		fx.Populate(&database),
	)
	app.RequireStart()
	assert.NotNil(t, database)
	app.RequireStop()
}
