package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"playconsole-backend/internal/components/telemetry"
	"strings"

	"github.com/jordan-wright/email"
)

const report_alert_send = "alert.send"

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp       SmtpConfig `json:"smtp"`
	Recipients []string   `json:"recipients"`
}

func (c Config) Enabled() bool {
	return c.Smtp.Server != "" && len(c.Recipients) > 0
}

// API notifies a human that something needs attention.
//
// note: fault injection point
type API interface {
	Alert(ctx context.Context, subject, body string) error
}

// Mailer sends alerts over smtp.
type Mailer struct {
	config Config
	tel    telemetry.API
}

func NewMailer(config Config, tel telemetry.API) Mailer {
	return Mailer{config: config, tel: telemetry.NewScopedAPI("alert", tel)}
}

func (m Mailer) Alert(ctx context.Context, subject, body string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Play Console Scraper <%s>", m.config.Smtp.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		m.tel.ReportBroken(report_alert_send, err, subject)
		return err
	}
	return nil
}

// Noop drops every alert, used when no smtp server is configured.
type Noop struct{}

func (Noop) Alert(context.Context, string, string) error {
	return nil
}
