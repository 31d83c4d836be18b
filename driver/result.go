package driver

import (
	"errors"
	"fmt"
	"strconv"
)

// Result wraps one completed command's result set. All methods are pure
// projections; the set is read-only after construction.
type Result struct {
	res NativeResult
}

func (r *Result) RowsAffected() int64 {
	return r.res.RowsAffected()
}

// Len is the number of rows in the result set.
func (r *Result) Len() int {
	return r.res.NumRows()
}

func (r *Result) Columns() []string {
	return r.res.Columns()
}

func (r *Result) Value(row, col int) any {
	return r.res.Value(row, col)
}

// FetchOne returns the first column of the first row.
func (r *Result) FetchOne() (any, error) {
	if r.res.NumRows() == 0 || r.res.NumColumns() == 0 {
		return nil, errors.New("pgdriver: result set is empty")
	}
	return r.res.Value(0, 0), nil
}

// toInt64 normalizes the representations the transport may use for a
// bigint column.
func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return 0, fmt.Errorf("pgdriver: cannot read %T as int64", v)
}
