package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenTTL is the lifetime of an access token. Refresh tokens carry the
// long-lived session in the sessions table.
const AccessTokenTTL = 15 * time.Minute

// RefreshTokenTTL is how long a stored refresh token stays valid.
const RefreshTokenTTL = 7 * 24 * time.Hour

// AccessClaims is what the API needs from a verified access token.
type AccessClaims struct {
	UserID  string
	Email   string
	IsAdmin bool
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return []byte(secret), nil
}

// GenerateAccessToken signs a short-lived HS256 token for the user.
func GenerateAccessToken(userID, email string, isAdmin bool) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"email":    email,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(AccessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	})

	return token.SignedString(secret)
}

// ParseAccessToken verifies an HS256 access token and extracts its claims.
func ParseAccessToken(tokenString string) (*AccessClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	isAdmin, _ := claims["is_admin"].(bool)
	if userID == "" {
		return nil, errors.New("invalid token claims")
	}

	return &AccessClaims{UserID: userID, Email: email, IsAdmin: isAdmin}, nil
}

// GenerateRefreshToken returns an opaque random token. Validity lives in the
// sessions table, not in the token itself.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
