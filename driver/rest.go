package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// REST surface for the adapter: connections and prepared statements become
// resources, so statements can be prepared and executed from another
// process. SQL-level failures travel with their SQLSTATE.

type ServerStmt struct {
	stmt   *Stmt
	ConnID string
	StmtID string
	Sql    string
}

type Server struct {
	dial        func() (NativeConn, error)
	connections map[string]*Conn
	statements  map[string]*ServerStmt
	router      *mux.Router
}

func NewServer(dial func() (NativeConn, error)) *Server {
	s := &Server{
		dial:        dial,
		connections: make(map[string]*Conn),
		statements:  make(map[string]*ServerStmt),
	}
	r := mux.NewRouter()
	r.HandleFunc("/connections", s.createConnection).Methods("POST")
	r.HandleFunc("/connections/{connID}", s.closeConnection).Methods("DELETE")
	r.HandleFunc("/connections/{connID}/query", s.queryConnection).Methods("POST")
	r.HandleFunc("/connections/{connID}/lastInsertId", s.lastInsertId).Methods("GET")
	r.HandleFunc("/connections/{connID}/statements", s.prepareStatement).Methods("POST")
	r.HandleFunc("/connections/{connID}/statements/{stmtID}", s.closeStatement).Methods("DELETE")
	r.HandleFunc("/connections/{connID}/statements/{stmtID}/rows", s.queryStatement).Methods("POST")
	r.HandleFunc("/connections/{connID}/statements/{stmtID}/execute", s.executeStatement).Methods("POST")
	s.router = r
	return s
}

func (s *Server) Router() *mux.Router {
	return s.router
}

func StartServer(addr string, dial func() (NativeConn, error)) {
	server := NewServer(dial)
	log.Fatal(http.ListenAndServe(addr, server.router))
}

// writeError keeps the SQLSTATE in the payload so the client side can
// rebuild the same structured error.
func writeError(w http.ResponseWriter, err error) {
	var e *Error
	if errors.As(err, &e) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResult{Error: e.Message, SQLState: e.State})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	native, err := s.dial()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	conn, err := NewConn(native)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	connID := fmt.Sprintf("conn_%d", len(s.connections))
	s.connections[connID] = conn

	json.NewEncoder(w).Encode(map[string]string{"connectionID": connID})
}

func (s *Server) connection(w http.ResponseWriter, r *http.Request) (*Conn, string, bool) {
	connID := mux.Vars(r)["connID"]
	conn, ok := s.connections[connID]
	if !ok {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return nil, "", false
	}
	return conn, connID, true
}

func (s *Server) closeConnection(w http.ResponseWriter, r *http.Request) {
	conn, connID, ok := s.connection(w, r)
	if !ok {
		return
	}
	conn.Close()
	delete(s.connections, connID)
}

func (s *Server) prepareStatement(w http.ResponseWriter, r *http.Request) {
	conn, connID, ok := s.connection(w, r)
	if !ok {
		return
	}
	var query queryType
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stmt, err := conn.Prepare(query.SQL)
	if err != nil {
		writeError(w, err)
		return
	}
	stmtID := fmt.Sprintf("stmt_%d", len(s.statements))
	s.statements[connID+"|"+stmtID] = &ServerStmt{stmt, connID, stmtID, query.SQL}

	json.NewEncoder(w).Encode(stmtInfo{connID, stmtID, stmt.NumInput()})
}

func (s *Server) statement(w http.ResponseWriter, r *http.Request) (*ServerStmt, bool) {
	vars := mux.Vars(r)
	stmt, ok := s.statements[vars["connID"]+"|"+vars["stmtID"]]
	if !ok {
		http.Error(w, "Statement not found", http.StatusNotFound)
		return nil, false
	}
	return stmt, true
}

func decodeArgs(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var req execRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}
	return req.Args, true
}

func (s *Server) executeStatement(w http.ResponseWriter, r *http.Request) {
	stmt, ok := s.statement(w, r)
	if !ok {
		return
	}
	args, ok := decodeArgs(w, r)
	if !ok {
		return
	}
	res, err := stmt.stmt.Exec(args)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(execResult{RowsAffected: res.RowsAffected()})
}

func (s *Server) queryStatement(w http.ResponseWriter, r *http.Request) {
	stmt, ok := s.statement(w, r)
	if !ok {
		return
	}
	args, ok := decodeArgs(w, r)
	if !ok {
		return
	}
	res, err := stmt.stmt.Exec(args)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(rowsPayload(res))
}

func (s *Server) queryConnection(w http.ResponseWriter, r *http.Request) {
	conn, _, ok := s.connection(w, r)
	if !ok {
		return
	}
	var query queryType
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := conn.Query(query.SQL)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(rowsPayload(res))
}

func (s *Server) lastInsertId(w http.ResponseWriter, r *http.Request) {
	conn, _, ok := s.connection(w, r)
	if !ok {
		return
	}
	id, err := conn.LastInsertId()
	if err != nil {
		if errors.Is(err, ErrNoLastInsertID) {
			writeError(w, &Error{State: sqlStateNoSequence, Message: err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(execResult{LastInsertID: &id})
}

func (s *Server) closeStatement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	delete(s.statements, vars["connID"]+"|"+vars["stmtID"])
}

func rowsPayload(res *Result) rowsResult {
	out := rowsResult{Columns: res.Columns()}
	for row := 0; row < res.Len(); row++ {
		values := make([]any, len(out.Columns))
		for col := range values {
			values[col] = res.Value(row, col)
		}
		out.Values = append(out.Values, values)
	}
	return out
}
