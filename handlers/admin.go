package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/models"
	"github.com/spendwise/expense-api/utils"
)

type AdminHandler struct {
	DB *sql.DB
}

// ListUsers gives admins a paginated view across all accounts, active or not.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := utils.NewPagination(c.Query("page"), c.Query("page_size"))

	var total int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, email, username, first_name, COALESCE(last_name, ''), COALESCE(mobile_no, ''),
		       totp_enabled, is_admin, is_verified, is_active, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, page.PageSize, page.Offset())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
			&user.MobileNo, &user.TOTPEnabled, &user.IsAdmin, &user.IsVerified, &user.IsActive,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, page.Envelope(users, total))
}
