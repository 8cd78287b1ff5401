package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/middleware"
	"github.com/spendwise/expense-api/models"
	"github.com/spendwise/expense-api/policy"
	"github.com/spendwise/expense-api/utils"
)

type UserHandler struct {
	DB *sql.DB
}

// resolveTarget picks the profile the request addresses: the :id parameter
// when present, otherwise the caller themselves. Access is owner-or-admin;
// the user resource is not masked, so a denied caller gets 403.
func (h *UserHandler) resolveTarget(c *gin.Context) (string, bool) {
	actor := middleware.GetActor(c)

	targetID := c.Param("id")
	if targetID == "" {
		targetID = actor.ID
	}

	if !policy.CanAccessUser(actor, targetID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this user."})
		return "", false
	}
	if c.Param("id") != "" && !utils.ValidUUID(targetID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return "", false
	}
	return targetID, true
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	targetID, ok := h.resolveTarget(c)
	if !ok {
		return
	}

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, email, username, first_name, COALESCE(last_name, ''), COALESCE(mobile_no, ''),
		       totp_enabled, is_admin, is_verified, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, targetID).Scan(
		&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName, &user.MobileNo,
		&user.TOTPEnabled, &user.IsAdmin, &user.IsVerified, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to fetch profile %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT: a full update of the mutable profile fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	h.updateProfile(c, false)
}

// PatchProfile handles PATCH: only the supplied fields change.
func (h *UserHandler) PatchProfile(c *gin.Context) {
	h.updateProfile(c, true)
}

func (h *UserHandler) updateProfile(c *gin.Context, partial bool) {
	targetID, ok := h.resolveTarget(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Password != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password cannot be updated using this endpoint"})
		return
	}
	if req.Email != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email cannot be updated using this endpoint"})
		return
	}

	if !partial && (req.Username == nil || req.FirstName == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and first_name are required"})
		return
	}

	set := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if !utils.ValidateUsername(username) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{
				"username": "Username must be 3-150 characters of lowercase letters, digits, '.' or '_'.",
			}})
			return
		}

		var taken bool
		err := h.DB.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)
		`, username, targetID).Scan(&taken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"errors": gin.H{
				"username": "A user with this username already exists.",
			}})
			return
		}
		add("username", username)
	}
	if req.FirstName != nil {
		add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		add("last_name", *req.LastName)
	}
	if req.MobileNo != nil {
		add("mobile_no", *req.MobileNo)
	}

	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	args = append(args, targetID)
	query := fmt.Sprintf(
		"UPDATE users SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(set, ", "), len(args),
	)
	result, err := h.DB.Exec(query, args...)
	if err != nil {
		log.Printf("ERROR: Failed to update profile %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	h.GetProfile(c)
}

// DeleteProfile soft-deactivates the account. Rows are never removed; the
// user's categories and transactions stay referenceable.
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	targetID, ok := h.resolveTarget(c)
	if !ok {
		return
	}

	result, err := h.DB.Exec(`
		UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Deactivation kills every open session for the account.
	if _, err := h.DB.Exec(`DELETE FROM sessions WHERE user_id = $1`, targetID); err != nil {
		log.Printf("ERROR: Failed to clear sessions for %s: %v", targetID, err)
	}

	log.Printf("INFO: User %s deactivated", targetID)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ChangePassword verifies and replaces the caller's password inside a
// transaction holding a row lock, so two concurrent changes cannot interleave
// between the old-hash read and the new-hash write.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{
			"confirm_password": "Passwords do not match.",
		}})
		return
	}
	if req.OldPassword == req.NewPassword {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{
			"new_password": "New password must be different from current password.",
		}})
		return
	}
	if problems := utils.ValidatePassword(req.NewPassword); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"new_password": problems}})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer tx.Rollback()

	var (
		currentHash string
		email       string
		isAdmin     bool
	)
	err = tx.QueryRow(`
		SELECT password_hash, email, is_admin FROM users WHERE id = $1 FOR UPDATE
	`, userID).Scan(&currentHash, &email, &isAdmin)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !utils.CheckPassword(req.OldPassword, currentHash) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{
			"old_password": "Current password is incorrect.",
		}})
		return
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash new password"})
		return
	}

	if _, err := tx.Exec(`
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, newHash, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(userID, email, isAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}
	if _, err := h.DB.Exec(`
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, NOW() + INTERVAL '7 days')
	`, userID, refreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	log.Printf("INFO: Password changed for user %s", userID)

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "Password successfully changed.",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// ============================================================================
// 2FA MANAGEMENT
// ============================================================================

func (h *UserHandler) SetupTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	// The verified token already carries the email; no lookup needed.
	secret, qrCode, err := utils.GenerateTOTPSecret(middleware.GetEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate TOTP"})
		return
	}

	encrypted, err := utils.Encrypt([]byte(secret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store TOTP secret"})
		return
	}

	if _, err := h.DB.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, encrypted, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store TOTP secret"})
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{Secret: secret, QRCode: qrCode})
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var stored sql.NullString
	err := h.DB.QueryRow(`SELECT totp_secret FROM users WHERE id = $1`, userID).Scan(&stored)
	if err != nil || !stored.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP not set up"})
		return
	}

	if !verifyStoredTOTP(stored.String, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	if _, err := h.DB.Exec(`
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable 2FA"})
		return
	}

	log.Printf("INFO: 2FA enabled for user %s", userID)

	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled successfully", "enabled": true})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.DisableTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		passwordHash string
		stored       sql.NullString
	)
	err := h.DB.QueryRow(`
		SELECT password_hash, totp_secret FROM users WHERE id = $1
	`, userID).Scan(&passwordHash, &stored)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	if !utils.CheckPassword(req.Password, passwordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	if stored.Valid && !verifyStoredTOTP(stored.String, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if _, err := h.DB.Exec(`
		UPDATE users SET totp_enabled = FALSE, totp_secret = NULL, updated_at = NOW() WHERE id = $1
	`, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable 2FA"})
		return
	}

	log.Printf("INFO: 2FA disabled for user %s", userID)

	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled successfully", "enabled": false})
}
