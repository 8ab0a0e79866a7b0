package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertColumnCount compte les colonnes listées entre les parenthèses d'un
// INSERT INTO table (...).
func insertColumnCount(t *testing.T, cql string) int {
	t.Helper()
	open := strings.Index(cql, "(")
	end := strings.Index(cql, ")")
	require.Greater(t, end, open)
	return len(strings.Split(cql[open+1:end], ","))
}

func TestHotPathInsertsBindEveryColumn(t *testing.T) {
	assert.Equal(t, insertColumnCount(t, CQLInsertOrder), strings.Count(CQLInsertOrder, "?"))
	assert.Equal(t, insertColumnCount(t, CQLInsertOrderItem), strings.Count(CQLInsertOrderItem, "?"))
}

func TestHotPathReadsTakeOneKey(t *testing.T) {
	assert.Equal(t, 1, strings.Count(CQLGetProductByID, "?"))
	assert.Contains(t, CQLGetProductByID, "WHERE product_id = ?")

	assert.Equal(t, 1, strings.Count(CQLGetVariantPrice, "?"))
	assert.Contains(t, CQLGetVariantPrice, "WHERE id = ?")
}
