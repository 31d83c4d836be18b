package driver

// NativeConn is the transport collaborator: a live client-library handle
// bound to one server session. The protocol is strictly half-duplex — after
// a successful Send* call exactly one FetchResult must follow before the
// next Send* on the same handle.
//
// Send* errors are transport failures (handle invalid, socket closed). A
// command the server rejected travels back as a NativeResult whose Failed
// method reports true; the transport round trip itself succeeded.
type NativeConn interface {
	// SendPrepare registers query under name on the server.
	SendPrepare(name, query string) error
	// SendQuery dispatches query text directly.
	SendQuery(query string) error
	// SendExecute runs the previously prepared statement name with args
	// bound to its $1..$N markers in order.
	SendExecute(name string, args []any) error
	// FetchResult retrieves the outcome of the last Send* call. After a
	// successful send the transport produces a result; a nil result with a
	// nil error does not happen (see Conn.dispatch).
	FetchResult() (NativeResult, error)
	// EscapeLiteral renders text as a server-parseable string literal.
	EscapeLiteral(text string) (string, error)
	// ServerVersion reports the negotiated server version from
	// connection-local metadata, without a round trip.
	ServerVersion() string
	// Close releases the handle. Implementations tolerate repeated calls.
	Close() error
}

// NativeResult is one completed command's result set, read-only.
type NativeResult interface {
	Failed() bool
	// SQLState is the five character diagnostic code of a failed command,
	// empty when the server did not supply one.
	SQLState() string
	ErrorMessage() string
	RowsAffected() int64
	NumRows() int
	NumColumns() int
	Columns() []string
	Value(row, col int) any
}
