package driver

import (
	"fmt"
	"strconv"
)

// Stmt is a named server-side prepared statement. It holds a non-owning
// reference to its Conn, which must outlive it; executing a Stmt after the
// Conn was closed is a precondition violation.
type Stmt struct {
	conn   *Conn
	name   string
	params map[string][]int
	inputs int
}

// Name is the server-scoped statement name generated at Prepare time.
func (s *Stmt) Name() string {
	return s.name
}

// NumInput is the number of $N markers in the rewritten statement.
func (s *Stmt) NumInput() int {
	return s.inputs
}

// Exec binds args to the statement's markers and runs it. Keys are the
// parameter names (or "1", "2", ... for positional placeholders); a value
// whose key maps to several ordinals is replicated to all of them. A
// missing key fails before anything is sent.
func (s *Stmt) Exec(args map[string]any) (*Result, error) {
	values := make([]any, s.inputs)
	for key, ordinals := range s.params {
		v, ok := args[key]
		if !ok {
			return nil, fmt.Errorf("pgdriver: no value bound for parameter %q", key)
		}
		for _, ordinal := range ordinals {
			values[ordinal-1] = v
		}
	}
	return s.conn.dispatch(func() error { return s.conn.native.SendExecute(s.name, values) })
}

// ExecValues is Exec for purely positional statements: args are bound to
// "1", "2", ... in the order given.
func (s *Stmt) ExecValues(args ...any) (*Result, error) {
	m := make(map[string]any, len(args))
	for i, v := range args {
		m[strconv.Itoa(i+1)] = v
	}
	return s.Exec(m)
}
