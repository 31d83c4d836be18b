package driver_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aschoerk/go-pg-driver/driver"
	"github.com/aschoerk/go-pg-driver/mock"
)

func startBridge(t *testing.T) (*driver.RestClient, *mock.Conn) {
	native := mock.NewConn()
	server := driver.NewServer(func() (driver.NativeConn, error) { return native, nil })
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return driver.NewRestClient(ts.URL), native
}

func TestRestBridgeRoundTrip(t *testing.T) {
	client, native := startBridge(t)
	native.Stub("SELECT name FROM users WHERE id = $1",
		[]string{"name"}, [][]any{{"Alice"}})

	conn, err := client.OpenConnection()
	require.NoError(t, err)

	stmt, err := conn.Prepare("INSERT INTO users (name) VALUES (:name)")
	require.NoError(t, err)
	assert.Equal(t, 1, stmt.NumInput())

	n, err := stmt.Exec(map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	id, err := conn.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	query, err := conn.Prepare("SELECT name FROM users WHERE id = :id")
	require.NoError(t, err)
	rows, err := query.Query(map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, rows.Columns)
	require.Len(t, rows.Values, 1)
	assert.Equal(t, "Alice", rows.Values[0][0])

	require.NoError(t, stmt.Close())
	require.NoError(t, conn.Close())
	assert.Equal(t, 1, native.CloseCalls())
}

func TestRestBridgeKeepsSQLState(t *testing.T) {
	client, native := startBridge(t)

	conn, err := client.OpenConnection()
	require.NoError(t, err)

	native.FailNextCommand("42601", "syntax error at or near \"FORM\"")
	_, err = conn.Prepare("SELECT * FORM t")
	var e *driver.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "42601", e.SQLState())
	assert.Contains(t, e.Message, "FORM")
}

func TestRestBridgeNoIdentityValue(t *testing.T) {
	client, _ := startBridge(t)

	conn, err := client.OpenConnection()
	require.NoError(t, err)

	_, err = conn.LastInsertId()
	assert.ErrorIs(t, err, driver.ErrNoLastInsertID)
}

func TestRestBridgeUnknownStatement(t *testing.T) {
	client, _ := startBridge(t)

	conn, err := client.OpenConnection()
	require.NoError(t, err)

	stmt, err := conn.Prepare("SELECT 1")
	require.NoError(t, err)
	require.NoError(t, stmt.Close())

	_, err = stmt.Exec(map[string]any{})
	assert.Error(t, err)
}
