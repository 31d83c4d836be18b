package driver

import "strconv"

// ParamRewriter converts portable placeholders into the server's $N ordinal
// markers while recording which ordinals each source parameter feeds. It is
// the visitor handed to parser.Parse during Prepare.
//
// Ordinals are assigned in first-occurrence order. A key that appears more
// than once in the SQL receives a fresh ordinal per occurrence, all recorded
// under the same key, so execution can replicate one supplied value across
// every position it maps to.
type ParamRewriter struct {
	ordinal int
	params  map[string][]int
}

func NewParamRewriter() *ParamRewriter {
	return &ParamRewriter{params: map[string][]int{}}
}

func (r *ParamRewriter) Named(name string) string {
	return r.assign(name)
}

// Positional keys are the 1-based declared position of the '?', so they
// share the map shape with named keys.
func (r *ParamRewriter) Positional(index int) string {
	return r.assign(strconv.Itoa(index))
}

func (r *ParamRewriter) assign(key string) string {
	r.ordinal++
	r.params[key] = append(r.params[key], r.ordinal)
	return "$" + strconv.Itoa(r.ordinal)
}

// Params is the key to ordinal-set map built so far. Immutable once the
// parse walk is over; the returned map is the rewriter's own.
func (r *ParamRewriter) Params() map[string][]int {
	return r.params
}

// NumParams is the total number of ordinals assigned.
func (r *ParamRewriter) NumParams() int {
	return r.ordinal
}
