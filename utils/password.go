package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSymbols is the punctuation set accepted as the required symbol.
const PasswordSymbols = `!@#$%^&*()_+-=[]{}|;:'",.<>?/~` + "`\\"

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks the signup/change-password policy and returns one
// message per missing requirement, so the client can show all of them at once.
func ValidatePassword(password string) []string {
	var problems []string

	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters long.")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter.")
	}
	if !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter.")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one digit.")
	}
	if !hasSymbol {
		problems = append(problems, "Password must contain at least one symbol.")
	}

	return problems
}
