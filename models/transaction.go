package models

import "time"

// ============================================================================
// TRANSACTION MODEL
// ============================================================================

type Transaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CategoryID      *string   `json:"category_id"`
	Amount          float64   `json:"amount"`
	Description     string    `json:"description"`
	Date            string    `json:"date"` // YYYY-MM-DD
	PaymentMethod   string    `json:"payment_method"`
	TransactionType string    `json:"transaction_type"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateTransactionRequest deliberately carries no binding tags: the handler
// validates each field itself so a zero or missing amount gets a proper
// field-level message instead of a generic binding error.
type CreateTransactionRequest struct {
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	CategoryID      *string `json:"category_id"`
	Date            string  `json:"date"` // defaults to today when empty
	PaymentMethod   string  `json:"payment_method"`
	TransactionType string  `json:"transaction_type"`
}

type UpdateTransactionRequest struct {
	Amount          *float64 `json:"amount"`
	Description     *string  `json:"description"`
	CategoryID      *string  `json:"category_id"`
	Date            *string  `json:"date"`
	PaymentMethod   *string  `json:"payment_method"`
	TransactionType *string  `json:"transaction_type"`
}

// Summary is the monthly aggregate. NetAmount is intentionally all-time
// (credits minus debits over the whole history), matching long-standing
// behavior clients rely on, while the other figures are month-scoped.
type Summary struct {
	Month             string  `json:"month"`
	TotalTransactions int     `json:"total_transactions"`
	TotalExpense      float64 `json:"total_expense"`
	TotalIncome       float64 `json:"total_income"`
	NetAmount         float64 `json:"net_amount"`
}
