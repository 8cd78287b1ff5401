package utils

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// transactionFilterColumns is the allow-list of query parameters the
// transaction listing accepts as equality filters. Anything else in the query
// string (other than page/page_size) is rejected instead of being forwarded
// to SQL.
var transactionFilterColumns = map[string]string{
	"category_id":      "category_id",
	"payment_method":   "payment_method",
	"transaction_type": "transaction_type",
	"date":             "date",
}

// BuildTransactionFilters turns allow-listed query parameters into an SQL
// clause fragment ("AND col = $n AND ...") plus its arguments. argOffset is
// the number of placeholders already used by the caller's query.
func BuildTransactionFilters(params map[string]string, argOffset int) (string, []interface{}, error) {
	if len(params) == 0 {
		return "", nil, nil
	}

	// Deterministic placeholder order.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clause := ""
	args := make([]interface{}, 0, len(params))
	for _, key := range keys {
		column, ok := transactionFilterColumns[key]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter: %s", key)
		}
		value := params[key]

		// Malformed values must not reach the uuid/date casts in SQL, where
		// they would fail the whole query instead of the one field.
		switch key {
		case "category_id":
			if !ValidUUID(value) {
				return "", nil, errors.New("category_id filter must be a valid UUID")
			}
		case "date":
			if _, err := time.Parse("2006-01-02", value); err != nil {
				return "", nil, errors.New("date filter must be in YYYY-MM-DD format")
			}
		}

		args = append(args, value)
		clause += fmt.Sprintf(" AND %s = $%d", column, argOffset+len(args))
	}

	return clause, args, nil
}
