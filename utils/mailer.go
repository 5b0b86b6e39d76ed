package utils

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/sanjana123-dot/hometownhub/config"
)

// MailerConfigured reports whether SMTP delivery is available. When it is not,
// password reset falls back to returning the link in the API response so local
// development works without a mail server.
func MailerConfigured() bool {
	cfg := config.Get()
	return cfg.SMTPHost != "" && cfg.SMTPUsername != ""
}

// SendMail delivers a single HTML email through the configured SMTP server.
func SendMail(to, subject, htmlBody string) error {
	cfg := config.Get()
	if !MailerConfigured() {
		return fmt.Errorf("smtp not configured")
	}

	m := gomail.NewMessage()
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	if cfg.SMTPFromName != "" {
		from = m.FormatAddress(from, cfg.SMTPFromName)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		Logger.Error("send mail failed", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}

// SendPasswordResetMail sends the reset link for a requested password reset.
func SendPasswordResetMail(to, resetURL string) error {
	body := fmt.Sprintf(`<p>You requested a password reset.</p>
<p><a href="%s">Click here to reset your password</a></p>
<p>This link expires in 1 hour. If you did not request this, you can ignore this email.</p>`, resetURL)
	return SendMail(to, "Password Reset Request", body)
}
