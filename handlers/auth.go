package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/expense-api/models"
	"github.com/spendwise/expense-api/services"
	"github.com/spendwise/expense-api/tokens"
	"github.com/spendwise/expense-api/utils"
)

type AuthHandler struct {
	DB     *sql.DB
	Tokens *tokens.Store
	Email  *services.EmailService
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	errs := gin.H{}
	if !utils.ValidateEmail(req.Email) {
		errs["email"] = "Enter a valid email address."
	}
	if !utils.ValidateUsername(req.Username) {
		errs["username"] = "Username must be 3-150 characters of lowercase letters, digits, '.' or '_'."
	}
	if problems := utils.ValidatePassword(req.Password); len(problems) > 0 {
		errs["password"] = problems
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	var emailTaken, usernameTaken bool
	err := h.DB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1),
		       EXISTS(SELECT 1 FROM users WHERE username = $2)
	`, req.Email, req.Username).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		log.Printf("ERROR: Signup duplicate check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if emailTaken || usernameTaken {
		conflicts := gin.H{}
		if emailTaken {
			conflicts["email"] = "A user with this email already exists."
		}
		if usernameTaken {
			conflicts["username"] = "A user with this username already exists."
		}
		c.JSON(http.StatusConflict, gin.H{"errors": conflicts})
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var userID string
	err = h.DB.QueryRow(`
		INSERT INTO users (email, username, password_hash, first_name, last_name, mobile_no)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id
	`, req.Email, req.Username, passwordHash, req.FirstName, req.LastName, req.MobileNo).Scan(&userID)
	if err != nil {
		log.Printf("ERROR: Failed to create user %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := h.Tokens.Issue(userID)
	if err != nil {
		// The account exists either way; the user can request a fresh link.
		log.Printf("ERROR: Failed to issue verification token for %s: %v", utils.MaskEmail(req.Email), err)
	} else {
		go func(email, firstName, token string) {
			if err := h.Email.SendVerificationEmail(email, firstName, token); err != nil {
				log.Printf("ERROR: Verification email to %s failed: %v", utils.MaskEmail(email), err)
			}
		}(req.Email, req.FirstName, token)
	}

	log.Printf("INFO: User signed up: %s", utils.MaskEmail(req.Email))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful. Check your inbox to verify your email.",
		"email":   req.Email,
	})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	userID, ok := h.Tokens.Consume(token)
	if !ok {
		log.Printf("INFO: Rejected verification token %s", utils.MaskToken(token))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired verification token"})
		return
	}

	result, err := h.DB.Exec(`
		UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		user       models.User
		totpSecret sql.NullString
	)
	err := h.DB.QueryRow(`
		SELECT id, email, username, password_hash, first_name, totp_secret, totp_enabled, is_admin, is_active
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(req.Email))).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.FirstName,
		&totpSecret, &user.TOTPEnabled, &user.IsAdmin, &user.IsActive,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		log.Printf("INFO: Failed login attempt for %s from %s", utils.MaskEmail(user.Email), c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User account is disabled."})
		return
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "2FA code required", "requires_2fa": true})
			return
		}
		if !totpSecret.Valid || !verifyStoredTOTP(totpSecret.String, req.TOTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
			return
		}
	}

	pair, err := h.issueTokenPair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		log.Printf("ERROR: Failed to issue tokens for %s: %v", utils.MaskEmail(user.Email), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	log.Printf("INFO: Successful login: %s", utils.MaskEmail(user.Email))

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful.",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required."})
		return
	}

	var (
		userID    string
		email     string
		isAdmin   bool
		isActive  bool
		expiresAt time.Time
	)
	err := h.DB.QueryRow(`
		SELECT u.id, u.email, u.is_admin, u.is_active, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.refresh_token = $1
	`, req.RefreshToken).Scan(&userID, &email, &isAdmin, &isActive, &expiresAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Rotation: the presented token is dead no matter what happens next.
	if _, err := h.DB.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if time.Now().After(expiresAt) || !isActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token."})
		return
	}

	pair, err := h.issueTokenPair(userID, email, isAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required."})
		return
	}

	result, err := h.DB.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful."})
}

// issueTokenPair mints an access token and persists a fresh refresh session.
func (h *AuthHandler) issueTokenPair(userID, email string, isAdmin bool) (*models.TokenPair, error) {
	accessToken, err := utils.GenerateAccessToken(userID, email, isAdmin)
	if err != nil {
		return nil, err
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	_, err = h.DB.Exec(`
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, refreshToken, time.Now().Add(utils.RefreshTokenTTL))
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// verifyStoredTOTP handles both encrypted (current) and plaintext (legacy)
// stored secrets.
func verifyStoredTOTP(stored, code string) bool {
	if secret, err := utils.Decrypt(stored); err == nil {
		return utils.VerifyTOTP(string(secret), code)
	}
	return utils.VerifyTOTP(stored, code)
}
