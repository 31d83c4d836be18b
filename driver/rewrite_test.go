package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aschoerk/go-pg-driver/driver"
	"github.com/aschoerk/go-pg-driver/parser"
)

func TestRewriteAssignsOrdinalsInFirstOccurrenceOrder(t *testing.T) {
	rewriter := driver.NewParamRewriter()
	rewritten := parser.Parse(
		"SELECT * FROM t WHERE a = :k AND b = :k AND c = :m AND d = :k", rewriter)

	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 AND c = $3 AND d = $4", rewritten)
	assert.Equal(t, 4, rewriter.NumParams())
	assert.Len(t, rewriter.Params(), 2)
	assert.Equal(t, []int{1, 2, 4}, rewriter.Params()["k"])
	assert.Equal(t, []int{3}, rewriter.Params()["m"])
}

func TestRewriteMixesNamedAndPositionalKeys(t *testing.T) {
	rewriter := driver.NewParamRewriter()
	rewritten := parser.Parse("UPDATE t SET a = ?, b = :b WHERE c = ?", rewriter)

	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE c = $3", rewritten)
	assert.Equal(t, []int{1}, rewriter.Params()["1"])
	assert.Equal(t, []int{2}, rewriter.Params()["b"])
	assert.Equal(t, []int{3}, rewriter.Params()["2"])
}

func TestRewriteWithoutPlaceholders(t *testing.T) {
	rewriter := driver.NewParamRewriter()
	sql := "DELETE FROM t WHERE id IN (SELECT id FROM old)"

	assert.Equal(t, sql, parser.Parse(sql, rewriter))
	assert.Empty(t, rewriter.Params())
	assert.Zero(t, rewriter.NumParams())
}
