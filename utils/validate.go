package utils

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// MaxTransactionAmount is the exclusive upper bound for transaction amounts.
const MaxTransactionAmount = 9999999.99

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9._]+$`)
)

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidateUsername enforces the username charset: lowercase letters, digits,
// dots and underscores, 3 to 150 characters.
func ValidateUsername(username string) bool {
	if len(username) < 3 || len(username) > 150 {
		return false
	}
	return usernameRe.MatchString(username)
}

// ValidateAmount checks the (0, 9999999.99) exclusive range and returns a
// field-level message when the amount is out of bounds.
func ValidateAmount(amount float64) (string, bool) {
	if amount <= 0 {
		return "Amount must be greater than zero", false
	}
	if amount >= MaxTransactionAmount {
		return fmt.Sprintf("Amount must be less than %.2f", MaxTransactionAmount), false
	}
	return "", true
}

// ValidUUID reports whether s parses as a UUID. Identifiers from the URL must
// be checked before they reach a query, or Postgres rejects the uuid cast and
// the request surfaces as a 500 instead of a 404.
func ValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ValidPaymentMethod reports whether method is one of the supported choices.
func ValidPaymentMethod(method string) bool {
	return method == "online" || method == "cash"
}

// ValidTransactionType reports whether t is debit or credit.
func ValidTransactionType(t string) bool {
	return t == "debit" || t == "credit"
}
