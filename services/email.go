package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// EmailService delivers transactional mail through the Resend HTTP API.
// Delivery is best-effort: callers fire it on a goroutine and log failures
// without rolling anything back.
type EmailService struct {
	apiKey      string
	fromEmail   string
	frontendURL string
	client      *http.Client
}

func NewEmailService() *EmailService {
	fromEmail := os.Getenv("FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "SpendWise <noreply@spendwise.app>"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	return &EmailService{
		apiKey:      os.Getenv("RESEND_API_KEY"),
		fromEmail:   fromEmail,
		frontendURL: frontendURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// SendVerificationEmail mails the signup verification link.
func (s *EmailService) SendVerificationEmail(to, firstName, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background-color: #f3f4f6; margin: 0; padding: 40px 20px;">
    <div style="max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 12px; padding: 40px;">
        <h2 style="color: #1f2937;">Welcome %s!</h2>
        <p style="color: #4b5563; font-size: 16px; line-height: 1.6;">
            Please verify your email address to activate your SpendWise account.
        </p>
        <a href="%s" style="display: inline-block; padding: 16px 32px; background: #059669; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600;">
            Verify my email
        </a>
        <p style="color: #9ca3af; font-size: 13px; margin-top: 30px;">
            This link expires shortly. If you did not sign up, ignore this email.
        </p>
    </div>
</body>
</html>
	`, firstName, verifyURL)

	return s.send(to, "Verify your email address", htmlBody)
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	if s.apiKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	payload, err := json.Marshal(emailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned status: %d", resp.StatusCode)
	}

	return nil
}
