package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransactionFilters(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		clause, args, err := BuildTransactionFilters(nil, 1)
		require.NoError(t, err)
		assert.Empty(t, clause)
		assert.Empty(t, args)
	})

	t.Run("single filter", func(t *testing.T) {
		clause, args, err := BuildTransactionFilters(map[string]string{
			"transaction_type": "debit",
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, " AND transaction_type = $2", clause)
		assert.Equal(t, []interface{}{"debit"}, args)
	})

	t.Run("multiple filters are ordered deterministically", func(t *testing.T) {
		clause, args, err := BuildTransactionFilters(map[string]string{
			"transaction_type": "credit",
			"payment_method":   "cash",
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, " AND payment_method = $3 AND transaction_type = $4", clause)
		assert.Equal(t, []interface{}{"cash", "credit"}, args)
	})

	t.Run("unknown filter is rejected", func(t *testing.T) {
		_, _, err := BuildTransactionFilters(map[string]string{
			"user_id": "someone-else",
		}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown filter")
	})

	t.Run("malformed category_id is rejected", func(t *testing.T) {
		_, _, err := BuildTransactionFilters(map[string]string{
			"category_id": "abc",
		}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid UUID")
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		_, _, err := BuildTransactionFilters(map[string]string{
			"date": "notadate",
		}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})

	t.Run("well-formed category_id and date pass", func(t *testing.T) {
		clause, args, err := BuildTransactionFilters(map[string]string{
			"category_id": "a3bb1890-42cc-4af8-9b73-6c4c9e2f8a11",
			"date":        "2026-03-10",
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, " AND category_id = $2 AND date = $3", clause)
		assert.Equal(t, []interface{}{"a3bb1890-42cc-4af8-9b73-6c4c9e2f8a11", "2026-03-10"}, args)
	})
}
