package driver

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"strconv"
)

// Implements the database/sql driver interfaces on top of Conn, so the
// adapter can be used through sql.OpenDB and wrappers like sqlx.

// Connector hands connections to database/sql without a DSN: every Connect
// call dials a fresh native handle through Dial and wraps it.
type Connector struct {
	Dial func(ctx context.Context) (NativeConn, error)
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	native, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := NewConn(native)
	if err != nil {
		return nil, err
	}
	return &sqlConn{c: conn}, nil
}

func (c *Connector) Driver() driver.Driver {
	return sqlDriver{}
}

type sqlDriver struct{}

func (sqlDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("pgdriver: opening by DSN is not supported, use a Connector")
}

type sqlConn struct {
	c *Conn
}

func (s *sqlConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := s.c.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{c: s.c, s: stmt}, nil
}

func (s *sqlConn) Close() error {
	return s.c.Close()
}

func (s *sqlConn) Begin() (driver.Tx, error) {
	if err := s.c.Begin(); err != nil {
		return nil, err
	}
	return &sqlTx{c: s.c}, nil
}

type sqlTx struct {
	c *Conn
}

func (t *sqlTx) Commit() error {
	return t.c.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.c.Rollback()
}

type sqlStmt struct {
	c *Conn
	s *Stmt
}

// Close does not deallocate server side; the statement name stays valid for
// the life of the session.
func (s *sqlStmt) Close() error {
	return nil
}

func (s *sqlStmt) NumInput() int {
	return s.s.NumInput()
}

func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	res, err := s.s.Exec(positionalArgs(args))
	if err != nil {
		return nil, err
	}
	return sqlResult{c: s.c, res: res}, nil
}

func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	res, err := s.s.Exec(positionalArgs(args))
	if err != nil {
		return nil, err
	}
	return &sqlRows{res: res}, nil
}

// positionalArgs keys driver values by their 1-based position, matching
// what the rewriter assigns to '?' placeholders.
func positionalArgs(args []driver.Value) map[string]any {
	m := make(map[string]any, len(args))
	for i, v := range args {
		m[strconv.Itoa(i+1)] = v
	}
	return m
}

type sqlResult struct {
	c   *Conn
	res *Result
}

// LastInsertId issues the session identity query on the owning connection
// at call time. Call it before the next statement on the same connection.
func (r sqlResult) LastInsertId() (int64, error) {
	return r.c.LastInsertId()
}

func (r sqlResult) RowsAffected() (int64, error) {
	return r.res.RowsAffected(), nil
}

type sqlRows struct {
	res *Result
	row int
}

func (r *sqlRows) Columns() []string {
	return r.res.Columns()
}

func (r *sqlRows) Close() error {
	return nil
}

func (r *sqlRows) Next(dest []driver.Value) error {
	if r.row >= r.res.Len() {
		return io.EOF
	}
	for i := range dest {
		dest[i] = r.res.Value(r.row, i)
	}
	r.row++
	return nil
}
