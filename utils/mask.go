package utils

import "strings"

// MaskEmail keeps the first character of the local part so operators can
// correlate log lines without the full address ending up in logs.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskToken shows only the first four characters of a token.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "..."
}
