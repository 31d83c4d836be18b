// Package mock provides an in-memory native handle for tests and examples.
// It speaks the same half-duplex send/fetch contract as a real transport,
// keeps a registry of prepared statements, simulates session sequence state
// for LASTVAL() and can be scripted to fail at either the transport or the
// SQL level.
package mock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/aschoerk/go-pg-driver/driver"
)

// Exec records one execution of a prepared statement, in the order the
// server saw the bound values.
type Exec struct {
	Name string
	Args []any
}

type failure struct {
	state   string
	message string
}

// Conn implements driver.NativeConn.
type Conn struct {
	statements *treemap.Map // name -> sql, ordered like a catalog scan
	stubs      map[string]*result
	pending    driver.NativeResult

	sequence     int64
	haveSequence bool

	version    string
	closed     bool
	closeCalls int

	nextFailure   *failure
	nextTransport error

	queryLog []string
	execLog  []Exec
}

func NewConn() *Conn {
	return &Conn{
		statements: treemap.NewWithStringComparator(),
		stubs:      make(map[string]*result),
		version:    "16.3 (mock)",
	}
}

// Stub makes sql (as sent, i.e. after placeholder rewriting) return the
// given rows on execution.
func (c *Conn) Stub(sql string, columns []string, rows [][]any) {
	c.stubs[sql] = &result{cols: columns, rows: rows, rowsAffected: int64(len(rows))}
}

// FailNextCommand makes the next command complete with a failed result
// carrying the given diagnostics. One shot.
func (c *Conn) FailNextCommand(state, message string) {
	c.nextFailure = &failure{state: state, message: message}
}

// BreakNextSend makes the next send fail at the transport level. One shot.
func (c *Conn) BreakNextSend(message string) {
	c.nextTransport = errors.New(message)
}

// SetServerVersion overrides the reported version metadata.
func (c *Conn) SetServerVersion(v string) {
	c.version = v
}

// Statements lists registered prepared statement names in catalog order.
func (c *Conn) Statements() []string {
	keys := c.statements.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.(string))
	}
	return names
}

// StatementSQL returns the text registered under name.
func (c *Conn) StatementSQL(name string) (string, bool) {
	v, ok := c.statements.Get(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// QueryLog is every SQL text sent directly, in order.
func (c *Conn) QueryLog() []string {
	return c.queryLog
}

// ExecLog is every prepared-statement execution, in order.
func (c *Conn) ExecLog() []Exec {
	return c.execLog
}

// CloseCalls counts how often the handle was released.
func (c *Conn) CloseCalls() int {
	return c.closeCalls
}

func (c *Conn) send(stage func() driver.NativeResult) error {
	if c.closed {
		return errors.New("mock: connection is closed")
	}
	if c.pending != nil {
		return errors.New("mock: a command is already in flight, fetch its result first")
	}
	if c.nextTransport != nil {
		err := c.nextTransport
		c.nextTransport = nil
		return err
	}
	if c.nextFailure != nil {
		f := c.nextFailure
		c.nextFailure = nil
		c.pending = &result{failed: true, state: f.state, message: f.message}
		return nil
	}
	c.pending = stage()
	return nil
}

func (c *Conn) SendPrepare(name, query string) error {
	return c.send(func() driver.NativeResult {
		c.statements.Put(name, query)
		return &result{}
	})
}

func (c *Conn) SendQuery(query string) error {
	return c.send(func() driver.NativeResult {
		c.queryLog = append(c.queryLog, query)
		return c.evaluate(query)
	})
}

func (c *Conn) SendExecute(name string, args []any) error {
	return c.send(func() driver.NativeResult {
		sql, ok := c.StatementSQL(name)
		if !ok {
			return &result{
				failed:  true,
				state:   "26000",
				message: fmt.Sprintf("prepared statement %q does not exist", name),
			}
		}
		c.execLog = append(c.execLog, Exec{Name: name, Args: args})
		return c.evaluate(sql)
	})
}

func (c *Conn) FetchResult() (driver.NativeResult, error) {
	if c.pending == nil {
		return nil, errors.New("mock: no result pending")
	}
	res := c.pending
	c.pending = nil
	return res, nil
}

// evaluate is the toy engine behind the handle: stubs first, then just
// enough verb recognition to keep sequence state and row counts plausible.
func (c *Conn) evaluate(sql string) *result {
	if r, ok := c.stubs[sql]; ok {
		return r
	}
	switch verb := firstWord(sql); verb {
	case "INSERT":
		c.sequence++
		c.haveSequence = true
		return &result{rowsAffected: 1}
	case "SELECT":
		if isLastvalQuery(sql) {
			if !c.haveSequence {
				return &result{
					failed:  true,
					state:   "55000",
					message: "lastval is not yet defined in this session",
				}
			}
			return &result{
				cols:         []string{"lastval"},
				rows:         [][]any{{c.sequence}},
				rowsAffected: 1,
			}
		}
		return &result{}
	default:
		return &result{}
	}
}

func firstWord(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func isLastvalQuery(sql string) bool {
	normalized := strings.ToUpper(strings.Join(strings.Fields(sql), " "))
	return normalized == "SELECT LASTVAL()"
}

// EscapeLiteral quotes text the way the server's escaping primitive does:
// quotes are doubled and backslashes force the E'' form. Text containing a
// null byte cannot be represented in a literal and is rejected.
func (c *Conn) EscapeLiteral(text string) (string, error) {
	if strings.ContainsRune(text, 0) {
		return "", errors.New("mock: text contains a null byte")
	}
	escaped := strings.ReplaceAll(text, "'", "''")
	if strings.Contains(text, `\`) {
		return "E'" + strings.ReplaceAll(escaped, `\`, `\\`) + "'", nil
	}
	return "'" + escaped + "'", nil
}

func (c *Conn) ServerVersion() string {
	return c.version
}

func (c *Conn) Close() error {
	c.closeCalls++
	c.closed = true
	c.pending = nil
	c.statements.Clear()
	return nil
}

type result struct {
	failed       bool
	state        string
	message      string
	rowsAffected int64
	cols         []string
	rows         [][]any
}

func (r *result) Failed() bool {
	return r.failed
}

func (r *result) SQLState() string {
	return r.state
}

func (r *result) ErrorMessage() string {
	return r.message
}

func (r *result) RowsAffected() int64 {
	return r.rowsAffected
}

func (r *result) NumRows() int {
	return len(r.rows)
}

func (r *result) NumColumns() int {
	return len(r.cols)
}

func (r *result) Columns() []string {
	return r.cols
}

func (r *result) Value(row, col int) any {
	return r.rows[row][col]
}
