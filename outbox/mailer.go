package outbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/Govind-619/LinkSphere/utils"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends emails through an SMTP relay
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer; connections are opened per message
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one message
func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// LogMailer logs emails instead of sending them, for local runs
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg EmailMessage) error {
	utils.LogInfo("[MAIL] to=%s subject=%q", strings.Join(msg.To, ","), msg.Subject)
	return nil
}
