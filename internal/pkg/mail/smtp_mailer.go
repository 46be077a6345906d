package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/picme-app/picme/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationEmail sends the account activation link
func SendActivationEmail(to, username, activationToken string) error {
	frontendURL := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
	link := fmt.Sprintf("%s/activate?token=%s", frontendURL, activationToken)

	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>welcome to picme! Please confirm your email address:</p><p><a href=\"%s\">%s</a></p>",
		username, link, link,
	)
	return SendMail(to, "Activate your picme account", body)
}

// SendPasswordResetEmail sends the password reset link
func SendPasswordResetEmail(to, username, resetToken string) error {
	frontendURL := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, resetToken)

	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>a password reset was requested for your account. The link is valid for one hour:</p><p><a href=\"%s\">%s</a></p><p>If this wasn't you, ignore this email.</p>",
		username, link, link,
	)
	return SendMail(to, "Reset your picme password", body)
}
