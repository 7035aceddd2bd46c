package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/gorefurbish/backend/internal/config"
)

// Mailer is the delivery capability the account flows depend on. Handlers
// hold this interface, not a concrete transport.
type Mailer interface {
	SendOTPEmail(to, code, fullName string) error
	SendWelcomeEmail(to, fullName string) error
}

var _ Mailer = (*EmailService)(nil)

// EmailService sends transactional mail over SMTP
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	fromName string
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.Email) (*EmailService, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing email credentials in configuration")
	}

	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		fromName: cfg.From,
	}, nil
}

// SendOTPEmail sends the password-reset code. A failure here is surfaced to
// the caller; the user must know the code never left the building.
func (e *EmailService) SendOTPEmail(to, code, fullName string) error {
	subject := "Password Reset OTP - GoRefurbish"
	body := e.otpEmailBody(code, fullName)

	if err := e.send(to, subject, body); err != nil {
		log.Printf("❌ Failed to send OTP email to %s: %v", to, err)
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	log.Printf("✅ OTP email sent to %s", to)
	return nil
}

// SendWelcomeEmail greets a new account. Best effort; signup does not fail
// because the mail provider hiccuped.
func (e *EmailService) SendWelcomeEmail(to, fullName string) error {
	subject := "Welcome to GoRefurbish!"
	body := e.welcomeEmailBody(fullName)

	if err := e.send(to, subject, body); err != nil {
		log.Printf("❌ Failed to send welcome email to %s: %v", to, err)
		return err
	}

	log.Printf("✅ Welcome email sent to %s", to)
	return nil
}

func (e *EmailService) send(to, subject, htmlBody string) error {
	addr := e.host + ":" + e.port
	auth := smtp.PlainAuth("", e.user, e.password, e.host)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", e.fromName, e.user))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	return smtp.SendMail(addr, auth, e.user, []string{to}, []byte(msg.String()))
}

func (e *EmailService) otpEmailBody(code, fullName string) string {
	if fullName == "" {
		fullName = "User"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>GoRefurbish - Password Reset Request</h2>
  <p>Hello %s,</p>
  <p>We received a request to reset the password for your GoRefurbish account. Use the code below to proceed:</p>
  <div style="background-color: #3498db; color: white; padding: 20px; text-align: center; border-radius: 8px;">
    <div style="font-size: 32px; font-weight: bold; letter-spacing: 5px;">%s</div>
  </div>
  <p><strong>This code is valid for 10 minutes only.</strong> Do not share it with anyone.</p>
  <p>If you didn't request a password reset, you can safely ignore this email.</p>
  <p>Best regards,<br>The GoRefurbish Team</p>
</body>
</html>`, fullName, code)
}

func (e *EmailService) welcomeEmailBody(fullName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Welcome to GoRefurbish!</h2>
  <p>Hello %s,</p>
  <p>Your account has been created successfully and you're now part of our community.</p>
  <p>You can now browse used products, list your own, and make purchases securely.</p>
  <p>Best regards,<br>The GoRefurbish Team</p>
</body>
</html>`, fullName)
}
