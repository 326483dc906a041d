package transport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "transport.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func TestSQLTransport(t *testing.T) {
	ctx := context.Background()
	tr := SQL(openSQLite(t))

	n, err := tr.Exec(ctx, `INSERT INTO items (label) VALUES (?), (?)`, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := tr.Query(ctx, `SELECT label FROM items ORDER BY id`)
	require.NoError(t, err)
	var labels []string
	for rows.Next() {
		var v any
		require.NoError(t, rows.Scan(&v))
		labels = append(labels, v.(string))
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"a", "b"}, labels)
}

func TestSQLTransport_Tx(t *testing.T) {
	ctx := context.Background()
	tr := SQL(openSQLite(t))

	tx, err := tr.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO items (label) VALUES (?)`, "gone")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	tx, err = tr.Begin(cancelled)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO items (label) VALUES (?)`, "kept")
	require.NoError(t, err)

	// Cancelling the begin context must not end the transaction.
	cancel()
	require.NoError(t, tx.Commit(ctx))

	rows, err := tr.Query(ctx, `SELECT COUNT(*) FROM items`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var count any
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, int64(1), count)
}

func TestSQLTransport_BeginCancelled(t *testing.T) {
	tr := SQL(openSQLite(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssignValues(t *testing.T) {
	var a any
	var s sql.NullString
	require.NoError(t, assignValues([]any{int64(4), "x"}, []any{&a, &s}))
	assert.Equal(t, int64(4), a)
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, s)

	assert.Error(t, assignValues([]any{1}, []any{&a, &a}))

	var n int
	assert.Error(t, assignValues([]any{1}, []any{&n}))
}

func TestGormTransport_NoPool(t *testing.T) {
	tr := GormFunc(func() *gorm.DB { return nil })

	_, err := tr.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errNoConnPool)

	_, err = tr.Begin(context.Background())
	assert.ErrorIs(t, err, errNoConnPool)
}
