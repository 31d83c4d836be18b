package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// markVisitor replaces placeholders with {name} / {index} markers and
// records what it was called with.
type markVisitor struct {
	names     []string
	positions []int
}

func (v *markVisitor) Named(name string) string {
	v.names = append(v.names, name)
	return "{" + name + "}"
}

func (v *markVisitor) Positional(index int) string {
	v.positions = append(v.positions, index)
	return fmt.Sprintf("{%d}", index)
}

func TestParse(t *testing.T) {
	testCases := []struct {
		sql       string
		expected  string
		names     []string
		positions []int
	}{{
		sql:      "SELECT * FROM users WHERE id = :id",
		expected: "SELECT * FROM users WHERE id = {id}",
		names:    []string{"id"},
	}, {
		sql:       "INSERT INTO t (a, b) VALUES (?, ?)",
		expected:  "INSERT INTO t (a, b) VALUES ({1}, {2})",
		positions: []int{1, 2},
	}, {
		sql:      "SELECT * FROM t WHERE a = :k OR b = :k OR c = :m",
		expected: "SELECT * FROM t WHERE a = {k} OR b = {k} OR c = {m}",
		names:    []string{"k", "k", "m"},
	}, {
		sql:       "SELECT * FROM t WHERE a = :name AND b = ?",
		expected:  "SELECT * FROM t WHERE a = {name} AND b = {1}",
		names:     []string{"name"},
		positions: []int{1},
	}, {
		sql:      "SELECT ':not_a_param' FROM t WHERE a = :real",
		expected: "SELECT ':not_a_param' FROM t WHERE a = {real}",
		names:    []string{"real"},
	}, {
		sql:      "SELECT 'it''s :quoted here', :a",
		expected: "SELECT 'it''s :quoted here', {a}",
		names:    []string{"a"},
	}, {
		sql:      `SELECT E'escaped \' :inner', :x`,
		expected: `SELECT E'escaped \' :inner', {x}`,
		names:    []string{"x"},
	}, {
		sql:      `SELECT ":col?" FROM t WHERE a = :y`,
		expected: `SELECT ":col?" FROM t WHERE a = {y}`,
		names:    []string{"y"},
	}, {
		sql:      "DO $$ SELECT :ignored; $$",
		expected: "DO $$ SELECT :ignored; $$",
	}, {
		sql:      "SELECT $tag$ has ? and :name $tag$, :kept",
		expected: "SELECT $tag$ has ? and :name $tag$, {kept}",
		names:    []string{"kept"},
	}, {
		sql:      "SELECT a::text FROM t WHERE b = :b",
		expected: "SELECT a::text FROM t WHERE b = {b}",
		names:    []string{"b"},
	}, {
		sql:      "-- comment with :c and ?\nSELECT :d",
		expected: "-- comment with :c and ?\nSELECT {d}",
		names:    []string{"d"},
	}, {
		sql:      "/* outer /* :nested ? */ still comment */ SELECT :e",
		expected: "/* outer /* :nested ? */ still comment */ SELECT {e}",
		names:    []string{"e"},
	}, {
		sql:      "SELECT * FROM t WHERE a = $1",
		expected: "SELECT * FROM t WHERE a = $1",
	}, {
		sql:      "SELECT money FROM t WHERE a > 5 : 3",
		expected: "SELECT money FROM t WHERE a > 5 : 3",
	}}

	for _, tc := range testCases {
		t.Run(tc.sql, func(t *testing.T) {
			visitor := &markVisitor{}
			rewritten := Parse(tc.sql, visitor)
			assert.Equal(t, tc.expected, rewritten)
			assert.Equal(t, tc.names, visitor.names)
			assert.Equal(t, tc.positions, visitor.positions)
		})
	}
}

func TestParseWithoutPlaceholdersIsIdentity(t *testing.T) {
	sql := "SELECT id, name FROM users WHERE age > 30 ORDER BY name"
	visitor := &markVisitor{}
	assert.Equal(t, sql, Parse(sql, visitor))
	assert.Empty(t, visitor.names)
	assert.Empty(t, visitor.positions)
}

func TestParseUnterminatedStringConsumesRest(t *testing.T) {
	visitor := &markVisitor{}
	assert.Equal(t, "SELECT 'oops :a", Parse("SELECT 'oops :a", visitor))
	assert.Empty(t, visitor.names)
}
