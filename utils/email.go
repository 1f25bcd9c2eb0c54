package utils

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"time"
)

var (
	smtpHost      = os.Getenv("SMTP_HOST")
	smtpPort      = os.Getenv("SMTP_PORT")
	smtpUsername  = os.Getenv("SMTP_USERNAME")
	smtpPassword  = os.Getenv("SMTP_PASSWORD")
	smtpFromName  = os.Getenv("SMTP_FROM_NAME")
	smtpFromEmail = os.Getenv("SMTP_FROM_EMAIL")
	smtpTimeout   = 10 * time.Second
)

// EmailConfigured reports whether SMTP credentials are present. Without them
// the app runs in demo mode and verification codes are returned in responses.
func EmailConfigured() bool {
	return smtpHost != "" && smtpUsername != "" && smtpPassword != ""
}

func sendEmail(to, subject, htmlBody string) error {
	if !EmailConfigured() {
		return fmt.Errorf("smtp not configured")
	}

	if smtpFromEmail == "" {
		smtpFromEmail = smtpUsername
	}

	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         smtpHost,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", smtpUsername, smtpPassword, smtpHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := client.Mail(smtpFromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	from := smtpFromName
	if from == "" {
		from = smtpFromEmail
	} else {
		from = fmt.Sprintf("%s <%s>", smtpFromName, smtpFromEmail)
	}

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n%s", from, to, subject, htmlBody))

	if _, err = w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return client.Quit()
}

func codeEmailBody(heading, code string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #4A90E2; margin: 0;">FindOne</h1>
  </div>
  <div style="background: #f8f9fa; border-radius: 12px; padding: 30px; text-align: center;">
    <h2 style="color: #333; margin-top: 0;">%s</h2>
    <div style="background: #4A90E2; color: white; font-size: 32px; font-weight: bold; letter-spacing: 8px; padding: 15px 30px; border-radius: 8px; display: inline-block;">
      %s
    </div>
    <p style="color: #999; font-size: 14px; margin-top: 20px;">
      This code expires in 10 minutes.
    </p>
  </div>
  <p style="color: #999; font-size: 12px; text-align: center; margin-top: 30px;">
    If you did not request this code, ignore this email.
  </p>
</div>`, heading, code)
}

// SendVerificationCode emails a 6-digit account verification code.
func SendVerificationCode(to, code string) error {
	return sendEmail(to, "Your FindOne verification code", codeEmailBody("Verification code", code))
}

// SendRecoveryCode emails a 6-digit password recovery code.
func SendRecoveryCode(to, code string) error {
	return sendEmail(to, "Your FindOne recovery code", codeEmailBody("Password recovery code", code))
}
