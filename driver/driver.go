// Package driver adapts one native PostgreSQL client handle into a
// synchronous statement-dispatch API: portable placeholders are rewritten
// into $N markers, every command runs through the half-duplex send/fetch
// cycle, and failures come back as SQLSTATE-carrying errors.
package driver

import (
	"errors"

	"github.com/google/uuid"

	"github.com/aschoerk/go-pg-driver/parser"
)

// sqlStateNoSequence is what the server raises for lastval() before any
// nextval() in the session.
const sqlStateNoSequence = "55000"

// Conn owns one native handle. At most one command is in flight at a time;
// callers that share a Conn across goroutines must serialize externally.
type Conn struct {
	native NativeConn
	closed bool
}

// NewConn wraps an already connected native handle. Establishing the
// connection (DSN, TLS, pooling) is the caller's concern.
func NewConn(native NativeConn) (*Conn, error) {
	if native == nil {
		return nil, errors.New("pgdriver: native connection is nil")
	}
	return &Conn{native: native}, nil
}

// dispatch runs one command cycle: send, then exactly one fetch. A send
// that fails at the transport level surfaces the transport's message; a
// fetched result that carries server diagnostics surfaces those instead.
func (c *Conn) dispatch(send func() error) (*Result, error) {
	if err := send(); err != nil {
		return nil, transportError(err)
	}
	res, err := c.native.FetchResult()
	if err != nil {
		return nil, transportError(err)
	}
	if res == nil {
		// The transport contract says this cannot happen after a
		// successful send; surface it as an error rather than crash.
		return nil, &Error{Message: "no result after successful send"}
	}
	if res.Failed() {
		return nil, resultError(res)
	}
	return &Result{res: res}, nil
}

// Prepare rewrites query into native placeholder syntax, registers it on
// the server under a fresh unique name and returns the bound statement.
// On failure no Stmt is returned and nothing usable is left behind.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	rewriter := NewParamRewriter()
	rewritten := parser.Parse(query, rewriter)
	name := uuid.New().String()
	if _, err := c.dispatch(func() error { return c.native.SendPrepare(name, rewritten) }); err != nil {
		return nil, err
	}
	return &Stmt{
		conn:   c,
		name:   name,
		params: rewriter.Params(),
		inputs: rewriter.NumParams(),
	}, nil
}

// Query dispatches query verbatim, with no placeholder rewriting. Meant for
// driver-internal commands and ad-hoc statements.
func (c *Conn) Query(query string) (*Result, error) {
	return c.dispatch(func() error { return c.native.SendQuery(query) })
}

// Exec is Query reduced to the affected-row count.
func (c *Conn) Exec(query string) (int64, error) {
	res, err := c.Query(query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// Quote renders text as a server-escaped string literal.
func (c *Conn) Quote(text string) (string, error) {
	lit, err := c.native.EscapeLiteral(text)
	if err != nil {
		return "", transportError(err)
	}
	return lit, nil
}

// LastInsertId fetches the most recently generated sequence value of this
// session. When no sequence has fired yet the server answers with
// SQLSTATE 55000, which comes back as ErrNoLastInsertID; every other
// failure propagates unchanged.
func (c *Conn) LastInsertId() (int64, error) {
	res, err := c.Query("SELECT LASTVAL()")
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.State == sqlStateNoSequence {
			return 0, ErrNoLastInsertID
		}
		return 0, err
	}
	v, err := res.FetchOne()
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// Begin, Commit and Rollback forward fixed SQL verbatim. The server is the
// sole source of truth for transaction state; nothing is tracked locally.
func (c *Conn) Begin() error {
	_, err := c.Exec("BEGIN")
	return err
}

func (c *Conn) Commit() error {
	_, err := c.Exec("COMMIT")
	return err
}

func (c *Conn) Rollback() error {
	_, err := c.Exec("ROLLBACK")
	return err
}

// ServerVersion reads the negotiated version from connection-local
// metadata; no round trip.
func (c *Conn) ServerVersion() string {
	return c.native.ServerVersion()
}

// Native exposes the underlying handle for advanced use. Ownership stays
// with the Conn.
func (c *Conn) Native() NativeConn {
	return c.native
}

// Close releases the native handle exactly once. Repeated calls are no-ops
// and release errors are swallowed; teardown is best effort.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.native.Close()
	return nil
}
