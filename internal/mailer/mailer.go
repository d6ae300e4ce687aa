package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readflowhq/readflow-backend/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender dispatches one-time codes to an email address.
type Sender interface {
	SendOTP(ctx context.Context, toEmail, code string) error
}

// SMTPMailer sends OTP mail over SMTP.
type SMTPMailer struct {
	host      string
	port      int
	user      string
	pass      string
	fromEmail string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		user:      cfg.SMTPUser,
		pass:      cfg.SMTPPass,
		fromEmail: cfg.FromEmail,
	}
}

const otpBody = `<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2 style="color: #0056b3;">Your One-Time Password (OTP)</h2>
  <p>Hello,</p>
  <p>Thank you for using ReadFlow. Your One-Time Password (OTP) for login is:</p>
  <h3 style="background-color: #f0f0f0; padding: 10px; border-radius: 5px; display: inline-block; letter-spacing: 2px;">%s</h3>
  <p>This OTP is valid for 5 minutes. Please do not share this code with anyone.</p>
  <p>If you did not request this, please ignore this email.</p>
  <p>Best regards,<br/>The ReadFlow Team</p>
</div>`

// SendOTP delivers the code. Blocks until the dial-and-send completes or
// ctx expires; a deadline hit surfaces as an error, never a hang.
func (m *SMTPMailer) SendOTP(ctx context.Context, toEmail, code string) error {
	if m.host == "" || m.user == "" || m.fromEmail == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.fromEmail)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your ReadFlow OTP")
	msg.SetBody("text/html", fmt.Sprintf(otpBody, code))

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send otp email: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("send otp email: %w", ctx.Err())
	}

	slog.Info("otp email sent", "to", toEmail)
	return nil
}
