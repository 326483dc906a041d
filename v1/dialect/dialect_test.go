package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
)

var (
	users = schema.MustModel("users",
		schema.Int("id").PrimaryKey().AutoGenerated(),
		schema.Text("name"),
		schema.Int("age").Nullable().Column("age_years"),
	)
	posts = schema.MustModel("posts",
		schema.Int("id").PrimaryKey(),
		schema.Text("title"),
	)

	userID   = orm.MustField[int64](users, "id")
	userName = orm.MustField[string](users, "name")
	userAge  = orm.MustField[int64](users, "age")
	postName = orm.MustField[string](posts, "title")
)

func TestCompileSelect(t *testing.T) {
	stmt := &orm.SelectStatement{
		Target:   users,
		Columns:  users.Fields(),
		Where:    orm.And(userAge.GreaterThan(18), orm.Or(userName.Like("a%"), userName.IsNull())),
		OrderBy:  []orm.Order{userAge.Desc(), userID.Asc()},
		HasLimit: true,
		Limit:    10,
		Offset:   20,
	}

	sql, args, err := Postgres.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "name", "age_years" FROM "users" WHERE ("age_years" > $1 AND ("name" LIKE $2 OR "name" IS NULL)) ORDER BY "age_years" DESC, "id" ASC LIMIT 10 OFFSET 20`,
		sql)
	assert.Equal(t, []any{int64(18), "a%"}, args)

	sql, _, err = MariaDB.Compile(stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, "`age_years` > ? AND (`name` LIKE ? OR `name` IS NULL)")
}

func TestCompileSelect_Aggregates(t *testing.T) {
	count := &orm.SelectStatement{
		Target:    users,
		Where:     userAge.LessEquals(18),
		OrderBy:   []orm.Order{userAge.Asc()},
		Aggregate: orm.AggregateCount,
	}
	sql, args, err := SQLite.Compile(count)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "age_years" <= ?`, sql)
	assert.Equal(t, []any{int64(18)}, args)

	exists := &orm.SelectStatement{Target: users, Aggregate: orm.AggregateExists}
	sql, _, err = SQLite.Compile(exists)
	require.NoError(t, err)
	assert.Equal(t, `SELECT 1 FROM "users" LIMIT 1`, sql)
}

func TestCompileCondition(t *testing.T) {
	tests := []struct {
		name string
		cond orm.Condition
		sql  string
		args []any
	}{
		{"equals", userID.Equals(7), `"id" = $1`, []any{int64(7)}},
		{"not equals", userName.NotEquals("x"), `"name" <> $1`, []any{"x"}},
		{"in", userID.In(1, 2, 3), `"id" IN ($1, $2, $3)`, []any{int64(1), int64(2), int64(3)}},
		{"empty in", userID.In(), `1 = 0`, nil},
		{"not", orm.Not(userAge.IsNotNull()), `NOT ("age_years" IS NOT NULL)`, nil},
		{"single child", orm.And(userID.LessThan(5)), `"id" < $1`, []any{int64(5)}},
		{
			"nested order",
			orm.Or(userID.GreaterEquals(1), orm.And(userAge.LessThan(2), userName.Equals("c"))),
			`("id" >= $1 OR ("age_years" < $2 AND "name" = $3))`,
			[]any{int64(1), int64(2), "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := Postgres.CompileCondition(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}

	_, _, err := Postgres.CompileCondition(orm.Or())
	assert.ErrorIs(t, err, orm.ErrEmptyCondition)
}

func TestCompileInsert(t *testing.T) {
	stmt := &orm.InsertStatement{
		Target:    users,
		Columns:   users.MustPatch("signup", "name", "age").Fields(),
		Rows:      [][]any{{"ann", int64(42)}, {"bob", nil}},
		Returning: []*schema.Field{users.PrimaryKey()},
	}
	sql, args, err := Postgres.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("name", "age_years") VALUES ($1, $2), ($3, $4) RETURNING "id"`, sql)
	assert.Equal(t, []any{"ann", int64(42), "bob", nil}, args)

	_, _, err = MySQL.Compile(stmt)
	assert.ErrorIs(t, err, ErrUnsupported)

	stmt.Returning = nil
	sql, _, err = MySQL.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`name`, `age_years`) VALUES (?, ?), (?, ?)", sql)
}

func TestCompileInsert_DefaultValues(t *testing.T) {
	stmt := &orm.InsertStatement{Target: posts, Rows: [][]any{{}}}

	sql, _, err := SQLite.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "posts" DEFAULT VALUES`, sql)

	sql, _, err = MariaDB.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `posts` () VALUES ()", sql)
}

func TestCompileUpdateAndDelete(t *testing.T) {
	upd := &orm.UpdateStatement{
		Target: users,
		Set:    []orm.Assignment{userName.To("zed"), userAge.To(30)},
		Where:  userID.Equals(9),
	}
	sql, args, err := Postgres.Compile(upd)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "age_years" = $2 WHERE "id" = $3`, sql)
	assert.Equal(t, []any{"zed", int64(30), int64(9)}, args)

	del := &orm.DeleteStatement{Target: users}
	sql, args, err = Postgres.Compile(del)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users"`, sql)
	assert.Empty(t, args)
}

func TestCompile_RejectsForeignFields(t *testing.T) {
	stmts := []orm.Statement{
		&orm.SelectStatement{Target: users, Columns: users.Fields(), Where: postName.Equals("x")},
		&orm.SelectStatement{Target: users, Columns: posts.Fields()},
		&orm.UpdateStatement{Target: users, Set: []orm.Assignment{postName.To("x")}},
		&orm.DeleteStatement{Target: users, Where: orm.Not(postName.IsNull())},
	}
	for _, stmt := range stmts {
		_, _, err := Postgres.Compile(stmt)
		assert.ErrorIs(t, err, orm.ErrForeignField, "%s", stmt.Kind())
	}
}

func TestCompile_OnlyOwnColumns(t *testing.T) {
	conds := []orm.Condition{
		userID.Equals(1),
		orm.And(userAge.GreaterThan(3), userName.Like("%x")),
		orm.Or(orm.Not(userID.In(1, 2)), userAge.IsNull()),
	}
	for _, cond := range conds {
		stmt := &orm.SelectStatement{Target: users, Columns: users.Fields(), Where: cond}
		sql, _, err := Postgres.Compile(stmt)
		require.NoError(t, err)
		assert.NotContains(t, sql, "posts")
		assert.NotContains(t, sql, "title")
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"we""ird"`, Postgres.Quote(`we"ird`))
	assert.Equal(t, "`a``b`", MariaDB.Quote("a`b"))
}

func TestByName(t *testing.T) {
	d, err := ByName("PostgreSQL")
	require.NoError(t, err)
	assert.Same(t, Postgres, d)

	_, err = ByName("oracle")
	assert.Error(t, err)
}

func TestCreateTable(t *testing.T) {
	m := schema.MustModel("events",
		schema.Int("id").PrimaryKey().AutoGenerated(),
		schema.Text("slug").Unique(),
		schema.Time("at").Default(),
		schema.Ref("owner", "users").Nullable(),
	)

	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "events" ("id" BIGSERIAL PRIMARY KEY, "slug" TEXT NOT NULL UNIQUE, "at" TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP, "owner" BIGINT)`,
		Postgres.CreateTable(m))
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "events" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "slug" TEXT NOT NULL UNIQUE, "at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, "owner" INTEGER)`,
		SQLite.CreateTable(m))
	assert.Equal(t, "DROP TABLE IF EXISTS `events`", MariaDB.DropTable(m))
}
