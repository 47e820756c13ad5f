// Package mailer sends transactional mail. Only the OTP verification
// message exists today.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/prvclub/backend/internal/config"
)

// Mailer dispatches mail to members.
type Mailer interface {
	SendOTP(to, code string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg *config.Config) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (m *smtpMailer) SendOTP(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s. It expires in 5 minutes.", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
