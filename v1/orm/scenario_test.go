package orm_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/sqlite"
)

var (
	users = schema.MustModel("users",
		schema.Int("id").PrimaryKey().AutoGenerated(),
		schema.Text("name"),
		schema.Int("age"),
		schema.Text("nickname").Nullable(),
		schema.Bool("active").Default(),
	)

	userID       = orm.MustField[int64](users, "id")
	userName     = orm.MustField[string](users, "name")
	userAge      = orm.MustField[int64](users, "age")
	userNickname = orm.MustField[*string](users, "nickname")
	userActive   = orm.MustField[bool](users, "active")

	signup = users.MustPatch("signup", "name", "age")
)

func newDatabase(t *testing.T) *orm.Database {
	t.Helper()
	db, err := sqlite.NewSQLite(sqlite.Config{Path: filepath.Join(t.TempDir(), "orm.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateTables(context.Background(), users))
	return db.ORM()
}

func seed(t *testing.T, exec orm.Executor) {
	t.Helper()
	n, err := orm.Insert(exec, signup).
		Bulk(orm.Row("ann", 42), orm.Row("bob", 0), orm.Row("cid", 1337)).
		ReturnNothing().
		Exec(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestScenario_FilterAfterBulkInsert(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	recs, err := orm.Select(db, users).Where(userAge.GreaterThan(100)).All(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "cid", orm.MustValue(recs[0], userName))
	assert.Equal(t, int64(1337), orm.MustValue(recs[0], userAge))
	assert.Nil(t, orm.MustValue(recs[0], userNickname))
	assert.False(t, orm.MustValue(recs[0], userActive))
}

func TestScenario_DeleteByCondition(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	n, err := orm.Delete(db, users).Where(userAge.LessEquals(18)).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := orm.Select(db, users).Where(userAge.LessEquals(18)).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := orm.Select(db, users).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestScenario_OneAndOptional(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	_, err := orm.Select(db, users).Where(userName.Equals("zed")).One(ctx)
	assert.ErrorIs(t, err, orm.ErrNotFound)

	_, ok, err := orm.Select(db, users).Where(userName.Equals("zed")).Optional(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, ok, err := orm.SelectPatch(db, signup).Where(userName.Equals("bob")).Optional(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Len())
	assert.Equal(t, int64(0), orm.MustValue(rec, userAge))
}

func TestScenario_StreamIsSinglePass(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	cur, err := orm.SelectFields(db, userName).OrderBy(userAge, orm.Desc).Stream(ctx)
	require.NoError(t, err)

	var names []string
	for rec, err := range cur.Records() {
		require.NoError(t, err)
		names = append(names, orm.MustValue(rec, userName))
	}
	assert.Equal(t, []string{"cid", "ann", "bob"}, names)

	for _, err := range cur.Records() {
		assert.ErrorIs(t, err, orm.ErrCursorClosed)
	}
	assert.False(t, cur.Next())
	assert.ErrorIs(t, cur.Err(), orm.ErrCursorClosed)
}

func TestScenario_RangeAndOrder(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	recs, err := orm.Select(db, users).OrderBy(userAge, orm.Asc).Range(1, 3).All(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "ann", orm.MustValue(recs[0], userName))
	assert.Equal(t, "cid", orm.MustValue(recs[1], userName))

	recs, err = orm.Select(db, users).OrderBy(userName, orm.Asc).Limit(1).Offset(2).All(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "cid", orm.MustValue(recs[0], userName))
}

func TestScenario_RollbackIsInvisible(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	seed(t, tx)

	inside, err := orm.Select(tx, users).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inside)

	outside, err := orm.Select(db, users).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), outside)

	require.NoError(t, tx.Rollback(ctx))
	outside, err = orm.Select(db, users).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), outside)
}

func TestScenario_CommitIsVisible(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	err := db.Transaction(ctx, func(tx *orm.Transaction) error {
		seed(t, tx)
		_, err := orm.Update(tx, users).Set(userActive.To(true)).Where(userName.Equals("ann")).Exec(ctx)
		return err
	})
	require.NoError(t, err)

	rec, err := orm.Select(db, users).Where(userActive.Equals(true)).One(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", orm.MustValue(rec, userName))
}

func TestScenario_FailedScopeRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	boom := fmt.Errorf("abort")
	err := db.Transaction(ctx, func(tx *orm.Transaction) error {
		seed(t, tx)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := orm.Select(db, users).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// register inserts a user through whatever executor it is given, committing
// only when it owns the transaction.
func register(ctx context.Context, exec orm.Executor, name string) error {
	g, err := orm.Acquire(ctx, exec)
	if err != nil {
		return err
	}
	defer g.Close(ctx)
	if _, err := orm.Insert(g, signup).Single(name, 30).ReturnNothing().Exec(ctx); err != nil {
		return err
	}
	return g.Commit(ctx)
}

func TestScenario_GuardOwnership(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	require.NoError(t, register(ctx, db, "owned"))
	count, err := orm.Select(db, users).Where(userName.Equals("owned")).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, register(ctx, tx, "borrowed"))
	assert.Equal(t, orm.TxActive, tx.State())

	count, err = orm.Select(db, users).Where(userName.Equals("borrowed")).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, tx.Rollback(ctx))
	count, err = orm.Select(db, users).Where(userName.Equals("borrowed")).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestScenario_DynamicUpdate(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	nick := "annie"
	changes := map[string]bool{"age": true, "nickname": true}

	acc := orm.Update(db, users).Dynamic().
		SetIf(changes["age"], userAge.To(43)).
		SetIf(changes["nickname"], userNickname.To(&nick)).
		SetIf(changes["name"], userName.To("ignored"))
	assert.Equal(t, 2, acc.Len())

	b, err := acc.Close()
	require.NoError(t, err)
	n, err := b.Where(userName.Equals("ann")).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rec, err := orm.Select(db, users).Where(userName.Equals("ann")).One(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(43), orm.MustValue(rec, userAge))
	got := orm.MustValue(rec, userNickname)
	require.NotNil(t, got)
	assert.Equal(t, "annie", *got)

	empty, err := orm.Update(db, users).Dynamic().Close()
	assert.ErrorIs(t, err, orm.ErrEmptyUpdate)
	require.NotNil(t, empty)
}

func TestScenario_NullEquality(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)
	seed(t, db)

	nick := "cee"
	_, err := orm.Update(db, users).Set(userNickname.To(&nick)).Where(userName.Equals("cid")).Exec(ctx)
	require.NoError(t, err)

	unnamed, err := orm.Select(db, users).Where(userNickname.Equals(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unnamed)

	named, err := orm.Select(db, users).Where(userNickname.NotEquals(nil)).All(ctx)
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "cid", orm.MustValue(named[0], userName))

	_, err = orm.Select(db, users).Where(userNickname.GreaterThan(nil)).All(ctx)
	assert.ErrorIs(t, err, orm.ErrTypeMismatch)
}

func TestScenario_InsertReturning(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	keys, err := orm.Insert(db, signup).
		Bulk(orm.Row("ann", 1), orm.Row("bob", 2)).
		ReturnPrimaryKey().
		Exec(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])

	recs, err := orm.Insert(db, signup).Single("cid", 3).ReturnFields(userID, userActive).Exec(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Len())
	assert.False(t, orm.MustValue(recs[0], userActive))

	n, err := orm.Delete(db, users).Bulk(keys...).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = orm.Delete(db, users).Single(orm.MustValue(recs[0], userID)).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestScenario_ConcurrentDatabaseUse(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := orm.Insert(db, signup).Single(fmt.Sprintf("user-%d", i), i).ReturnNothing().Exec(gctx)
			if err != nil {
				return err
			}
			_, err = orm.Select(db, users).Where(userAge.GreaterEquals(0)).Count(gctx)
			return err
		})
	}
	require.NoError(t, g.Wait())

	count, err := orm.Select(db, users).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
}
