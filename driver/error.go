package driver

import (
	"errors"
	"fmt"
)

// Error is the structured form every failed dispatch surfaces. It carries
// the server's SQLSTATE diagnostic code when one is available and the error
// message text, regardless of whether the failure happened at the transport
// level or inside the server.
type Error struct {
	State   string // five character SQLSTATE, empty when unknown
	Message string
}

func (e *Error) Error() string {
	if e.State == "" {
		return fmt.Sprintf("pgdriver: %s", e.Message)
	}
	return fmt.Sprintf("pgdriver: %s (SQLSTATE %s)", e.Message, e.State)
}

// SQLState returns the diagnostic code for downstream policy decisions.
func (e *Error) SQLState() string {
	return e.State
}

// transportError builds an Error from a failed send or fetch. No result
// exists in that case, so only the transport's message is available.
func transportError(err error) *Error {
	return &Error{Message: err.Error()}
}

// resultError builds an Error from a completed but failed result.
func resultError(res NativeResult) *Error {
	return &Error{State: res.SQLState(), Message: res.ErrorMessage()}
}

// ErrNoLastInsertID reports that the session has no generated identity
// value in scope. Callers branch on it with errors.Is to tell "no identity
// here" apart from a failed identity query.
var ErrNoLastInsertID = errors.New("pgdriver: no last insert id available in this session")
