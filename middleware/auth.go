package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/policy"
	"github.com/spendwise/expense-api/utils"
)

const (
	ctxUserID  = "user_id"
	ctxEmail   = "email"
	ctxIsAdmin = "is_admin"
)

// AuthMiddleware verifies the Bearer access token and loads the actor into
// the request context. The admin flag and active state are re-read from the
// database so a deactivated or demoted user cannot ride out an old token.
func AuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		var isAdmin, isActive bool
		err = db.QueryRow(`
			SELECT is_admin, is_active FROM users WHERE id = $1
		`, claims.UserID).Scan(&isAdmin, &isActive)

		if err == sql.ErrNoRows || (err == nil && !isActive) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is disabled"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate request"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxIsAdmin, isAdmin)
		c.Next()
	}
}

// AdminOnly rejects non-admin actors. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or "" when unauthenticated.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetEmail returns the authenticated user's email.
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetActor returns the policy actor for the request.
func GetActor(c *gin.Context) policy.Actor {
	return policy.Actor{
		ID:      c.GetString(ctxUserID),
		IsAdmin: c.GetBool(ctxIsAdmin),
	}
}
