package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Client side of the REST bridge.

type queryType struct {
	SQL string `json:"sql"`
}

type stmtInfo struct {
	ConnectionID string `json:"connectionId"`
	StatementID  string `json:"statementId"`
	NumInput     int    `json:"numInput"`
}

type execRequest struct {
	Args map[string]any `json:"args"`
}

type execResult struct {
	RowsAffected int64  `json:"rowsAffected"`
	LastInsertID *int64 `json:"lastInsertId,omitempty"`
}

type rowsResult struct {
	Columns []string `json:"columns"`
	Values  [][]any  `json:"values"`
}

type errorResult struct {
	Error    string `json:"error"`
	SQLState string `json:"sqlstate,omitempty"`
}

// RestRows is a fetched result set as it travels over the bridge.
type RestRows struct {
	Columns []string
	Values  [][]any
}

type RestClient struct {
	base string
	hc   *http.Client
}

func NewRestClient(base string) *RestClient {
	return &RestClient{base: base, hc: &http.Client{}}
}

// call posts body (or DELETEs/GETs with nil body), decodes the JSON reply
// into out and rebuilds structured errors from error payloads.
func (c *RestClient) call(method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload errorResult
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return &Error{State: payload.SQLState, Message: payload.Error}
		}
		return fmt.Errorf("pgdriver: rest call %s %s failed with status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// OpenConnection asks the bridge to dial a new server session.
func (c *RestClient) OpenConnection() (*RestConn, error) {
	var reply map[string]string
	if err := c.call("POST", "/connections", nil, &reply); err != nil {
		return nil, err
	}
	return &RestConn{client: c, id: reply["connectionID"]}, nil
}

type RestConn struct {
	client *RestClient
	id     string
}

func (c *RestConn) Prepare(sql string) (*RestStmt, error) {
	var info stmtInfo
	err := c.client.call("POST", "/connections/"+c.id+"/statements", queryType{SQL: sql}, &info)
	if err != nil {
		return nil, err
	}
	return &RestStmt{conn: c, id: info.StatementID, numInput: info.NumInput}, nil
}

func (c *RestConn) Query(sql string) (*RestRows, error) {
	var rows rowsResult
	err := c.client.call("POST", "/connections/"+c.id+"/query", queryType{SQL: sql}, &rows)
	if err != nil {
		return nil, err
	}
	return &RestRows{Columns: rows.Columns, Values: rows.Values}, nil
}

func (c *RestConn) LastInsertId() (int64, error) {
	var res execResult
	err := c.client.call("GET", "/connections/"+c.id+"/lastInsertId", nil, &res)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.State == sqlStateNoSequence {
			return 0, ErrNoLastInsertID
		}
		return 0, err
	}
	if res.LastInsertID == nil {
		return 0, ErrNoLastInsertID
	}
	return *res.LastInsertID, nil
}

func (c *RestConn) Close() error {
	return c.client.call("DELETE", "/connections/"+c.id, nil, nil)
}

type RestStmt struct {
	conn     *RestConn
	id       string
	numInput int
}

func (s *RestStmt) NumInput() int {
	return s.numInput
}

func (s *RestStmt) Exec(args map[string]any) (int64, error) {
	var res execResult
	err := s.conn.client.call("POST", s.path()+"/execute", execRequest{Args: args}, &res)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (s *RestStmt) Query(args map[string]any) (*RestRows, error) {
	var rows rowsResult
	err := s.conn.client.call("POST", s.path()+"/rows", execRequest{Args: args}, &rows)
	if err != nil {
		return nil, err
	}
	return &RestRows{Columns: rows.Columns, Values: rows.Values}, nil
}

func (s *RestStmt) Close() error {
	return s.conn.client.call("DELETE", s.path(), nil, nil)
}

func (s *RestStmt) path() string {
	return "/connections/" + s.conn.id + "/statements/" + s.id
}
