package driver_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aschoerk/go-pg-driver/driver"
	"github.com/aschoerk/go-pg-driver/mock"
)

func openDB(t *testing.T) (*sql.DB, *mock.Conn) {
	native := mock.NewConn()
	connector := &driver.Connector{
		Dial: func(ctx context.Context) (driver.NativeConn, error) { return native, nil },
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db, native
}

func TestSQLExecAndLastInsertId(t *testing.T) {
	db, native := openDB(t)

	res, err := db.Exec("INSERT INTO users (name, age) VALUES (?, ?)", "Alice", 30)
	require.NoError(t, err)

	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	log := native.ExecLog()
	require.Len(t, log, 1)
	assert.Equal(t, []any{"Alice", int64(30)}, log[0].Args)
}

func TestSQLQueryRow(t *testing.T) {
	db, native := openDB(t)
	native.Stub("SELECT name, age FROM users WHERE id = $1",
		[]string{"name", "age"}, [][]any{{"Alice", int64(30)}})

	var name string
	var age int
	err := db.QueryRow("SELECT name, age FROM users WHERE id = ?", 1).Scan(&name, &age)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	assert.Equal(t, 30, age)
}

func TestSQLTransaction(t *testing.T) {
	db, native := openDB(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Exec("INSERT INTO t (a) VALUES (?)", 1)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"BEGIN", "COMMIT"}, native.QueryLog())
}

func TestSQLErrorKeepsState(t *testing.T) {
	db, native := openDB(t)
	require.NoError(t, db.Ping())
	native.FailNextCommand("42P01", `relation "missing" does not exist`)

	_, err := db.Exec("SELECT * FROM missing WHERE a = ?", 1)
	var e *driver.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "42P01", e.SQLState())
}

func TestSqlxOverTheBridge(t *testing.T) {
	db, native := openDB(t)
	native.Stub("SELECT name, age FROM users ORDER BY name",
		[]string{"name", "age"}, [][]any{{"Alice", int64(30)}, {"Hans", int64(31)}})

	dbx := sqlx.NewDb(db, "pgdriver")

	var users []struct {
		Name string `db:"name"`
		Age  int64  `db:"age"`
	}
	err := dbx.Select(&users, "SELECT name, age FROM users ORDER BY name")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, int64(31), users[1].Age)
}
