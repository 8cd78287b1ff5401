package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/handlers"
	"github.com/spendwise/expense-api/services"
	"github.com/spendwise/expense-api/tokens"
)

// SetupAuthRoutes wires the public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB, tokenStore *tokens.Store) {
	authHandler := &handlers.AuthHandler{
		DB:     db,
		Tokens: tokenStore,
		Email:  services.NewEmailService(),
	}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.GET("/auth/verify-email/:token", authHandler.VerifyEmail)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
	rg.POST("/auth/logout", authHandler.Logout)
}

// SetupUserRoutes wires the protected profile and password routes.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.GET("/profile", userHandler.GetProfile)
	rg.GET("/profile/:id", userHandler.GetProfile)
	rg.PUT("/profile", userHandler.UpdateProfile)
	rg.PUT("/profile/:id", userHandler.UpdateProfile)
	rg.PATCH("/profile", userHandler.PatchProfile)
	rg.PATCH("/profile/:id", userHandler.PatchProfile)
	rg.DELETE("/profile", userHandler.DeleteProfile)
	rg.DELETE("/profile/:id", userHandler.DeleteProfile)

	rg.POST("/change-password", userHandler.ChangePassword)

	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}

// SetupCategoryRoutes wires the category registry.
func SetupCategoryRoutes(rg *gin.RouterGroup, db *sql.DB) {
	categoryHandler := &handlers.CategoryHandler{DB: db}

	rg.GET("/categories", categoryHandler.ListCategories)
	rg.POST("/categories", categoryHandler.CreateCategory)
	rg.GET("/categories/:id", categoryHandler.GetCategory)
	rg.PUT("/categories/:id", categoryHandler.UpdateCategory)
	rg.PATCH("/categories/:id", categoryHandler.PatchCategory)
	rg.DELETE("/categories/:id", categoryHandler.DeleteCategory)
}

// SetupTransactionRoutes wires the transaction ledger. The summary route
// must register before the :id route group is matched.
func SetupTransactionRoutes(rg *gin.RouterGroup, db *sql.DB) {
	transactionHandler := &handlers.TransactionHandler{DB: db}

	rg.GET("/transactions/summary", transactionHandler.Summary)
	rg.GET("/transactions", transactionHandler.ListTransactions)
	rg.POST("/transactions", transactionHandler.CreateTransaction)
	rg.GET("/transactions/:id", transactionHandler.GetTransaction)
	rg.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	rg.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)
}

// SetupAdminRoutes wires admin-only routes.
func SetupAdminRoutes(rg *gin.RouterGroup, db *sql.DB) {
	adminHandler := &handlers.AdminHandler{DB: db}

	rg.GET("/admin/users", adminHandler.ListUsers)
}
