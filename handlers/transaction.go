package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/middleware"
	"github.com/spendwise/expense-api/models"
	"github.com/spendwise/expense-api/utils"
)

type TransactionHandler struct {
	DB *sql.DB
}

const dateLayout = "2006-01-02"

// ListTransactions returns the caller's own transactions, newest first.
// There is no admin cross-user listing here; admins see only their own
// ledger through this endpoint.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page := utils.NewPagination(c.Query("page"), c.Query("page_size"))

	filterParams := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if key == "page" || key == "page_size" || len(values) == 0 {
			continue
		}
		filterParams[key] = values[0]
	}

	clause, filterArgs, err := utils.BuildTransactionFilters(filterParams, 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	countArgs := append([]interface{}{userID}, filterArgs...)
	var total int
	if err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE user_id = $1"+clause, countArgs...,
	).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	listArgs := append([]interface{}{userID}, filterArgs...)
	limitPos := len(listArgs) + 1
	listArgs = append(listArgs, page.PageSize, page.Offset())

	query := "SELECT id, user_id, category_id, amount, description, date, payment_method, transaction_type, created_at, updated_at" +
		" FROM transactions WHERE user_id = $1" + clause +
		" ORDER BY date DESC, created_at DESC" +
		" LIMIT $" + strconv.Itoa(limitPos) + " OFFSET $" + strconv.Itoa(limitPos+1)

	rows, err := h.DB.Query(query, listArgs...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, page.Envelope(transactions, total))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		txn  models.Transaction
		date time.Time
	)
	err := row.Scan(&txn.ID, &txn.UserID, &txn.CategoryID, &txn.Amount, &txn.Description,
		&date, &txn.PaymentMethod, &txn.TransactionType, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	txn.Date = date.Format(dateLayout)
	return &txn, nil
}

// categoryUsable reports whether the caller may tag transactions with the
// category: it must exist, be active, and be either their own or global.
func (h *TransactionHandler) categoryUsable(categoryID, userID string) (bool, error) {
	if !utils.ValidUUID(categoryID) {
		return false, nil
	}

	var usable bool
	err := h.DB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM categories
			WHERE id = $1 AND is_active = TRUE AND (user_id = $2 OR user_id IS NULL)
		)
	`, categoryID, userID).Scan(&usable)
	return usable, err
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := gin.H{}
	if msg, ok := utils.ValidateAmount(req.Amount); !ok {
		errs["amount"] = msg
	}
	if !utils.ValidPaymentMethod(req.PaymentMethod) {
		errs["payment_method"] = "Payment method must be 'online' or 'cash'."
	}
	if !utils.ValidTransactionType(req.TransactionType) {
		errs["transaction_type"] = "Transaction type must be 'debit' or 'credit'."
	}

	date := time.Now().Format(dateLayout)
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			errs["date"] = "Date must be in YYYY-MM-DD format."
		} else {
			date = parsed.Format(dateLayout)
		}
	}

	if req.CategoryID != nil {
		usable, err := h.categoryUsable(*req.CategoryID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
			return
		}
		if !usable {
			errs["category_id"] = "Category not found."
		}
	}

	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	var txn models.Transaction
	var txnDate time.Time
	err := h.DB.QueryRow(`
		INSERT INTO transactions (user_id, category_id, amount, description, date, payment_method, transaction_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, category_id, amount, description, date, payment_method, transaction_type, created_at, updated_at
	`, userID, req.CategoryID, req.Amount, req.Description, date, req.PaymentMethod, req.TransactionType).Scan(
		&txn.ID, &txn.UserID, &txn.CategoryID, &txn.Amount, &txn.Description,
		&txnDate, &txn.PaymentMethod, &txn.TransactionType, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		log.Printf("ERROR: Failed to create transaction for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}
	txn.Date = txnDate.Format(dateLayout)

	c.JSON(http.StatusCreated, txn)
}

// fetchOwned loads a transaction only when the caller owns it. Anything else
// looks like 404: existence is never leaked across owners, and there is
// deliberately no admin override on transactions.
func (h *TransactionHandler) fetchOwned(c *gin.Context, id, userID string) (*models.Transaction, bool) {
	if !utils.ValidUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or you do not have permission"})
		return nil, false
	}

	row := h.DB.QueryRow(`
		SELECT id, user_id, category_id, amount, description, date, payment_method, transaction_type, created_at, updated_at
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or you do not have permission"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transaction"})
		return nil, false
	}
	return txn, true
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, ok := h.fetchOwned(c, c.Param("id"), middleware.GetUserID(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, txn)
}

// UpdateTransaction applies a partial update. The owner field is immutable:
// it is not even part of the request payload.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID := middleware.GetUserID(c)

	txn, ok := h.fetchOwned(c, c.Param("id"), userID)
	if !ok {
		return
	}

	var req models.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := gin.H{}

	amount := txn.Amount
	if req.Amount != nil {
		if msg, ok := utils.ValidateAmount(*req.Amount); !ok {
			errs["amount"] = msg
		} else {
			amount = *req.Amount
		}
	}

	description := txn.Description
	if req.Description != nil {
		description = *req.Description
	}

	date := txn.Date
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			errs["date"] = "Date must be in YYYY-MM-DD format."
		} else {
			date = parsed.Format(dateLayout)
		}
	}

	paymentMethod := txn.PaymentMethod
	if req.PaymentMethod != nil {
		if !utils.ValidPaymentMethod(*req.PaymentMethod) {
			errs["payment_method"] = "Payment method must be 'online' or 'cash'."
		} else {
			paymentMethod = *req.PaymentMethod
		}
	}

	transactionType := txn.TransactionType
	if req.TransactionType != nil {
		if !utils.ValidTransactionType(*req.TransactionType) {
			errs["transaction_type"] = "Transaction type must be 'debit' or 'credit'."
		} else {
			transactionType = *req.TransactionType
		}
	}

	categoryID := txn.CategoryID
	if req.CategoryID != nil {
		usable, err := h.categoryUsable(*req.CategoryID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
			return
		}
		if !usable {
			errs["category_id"] = "Category not found."
		} else {
			categoryID = req.CategoryID
		}
	}

	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	var (
		updated models.Transaction
		updDate time.Time
	)
	err := h.DB.QueryRow(`
		UPDATE transactions
		SET amount = $1, description = $2, category_id = $3, date = $4,
		    payment_method = $5, transaction_type = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING id, user_id, category_id, amount, description, date, payment_method, transaction_type, created_at, updated_at
	`, amount, description, categoryID, date, paymentMethod, transactionType, txn.ID, userID).Scan(
		&updated.ID, &updated.UserID, &updated.CategoryID, &updated.Amount, &updated.Description,
		&updDate, &updated.PaymentMethod, &updated.TransactionType, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		log.Printf("ERROR: Failed to update transaction %s: %v", txn.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
		return
	}
	updated.Date = updDate.Format(dateLayout)

	c.JSON(http.StatusOK, updated)
}

// DeleteTransaction removes the row for good. Transactions are the one
// resource that hard-deletes.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id := c.Param("id")
	if !utils.ValidUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or you do not have permission"})
		return
	}

	result, err := h.DB.Exec(`
		DELETE FROM transactions WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or you do not have permission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

// Summary aggregates the caller's transactions for one month (any year).
// total_expense/total_income are month-scoped; net_amount is all-time.
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID := middleware.GetUserID(c)

	month := int(time.Now().Month())
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month parameter"})
			return
		}
		month = parsed
	}

	var summary models.Summary
	summary.Month = time.Month(month).String()

	err := h.DB.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN transaction_type = 'debit' THEN amount END), 0),
		       COALESCE(SUM(CASE WHEN transaction_type = 'credit' THEN amount END), 0)
		FROM transactions
		WHERE user_id = $1 AND EXTRACT(MONTH FROM date) = $2
	`, userID, month).Scan(&summary.TotalTransactions, &summary.TotalExpense, &summary.TotalIncome)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	err = h.DB.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'credit' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE user_id = $1
	`, userID).Scan(&summary.NetAmount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
