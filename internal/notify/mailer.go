package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/logger"
)

// Mailer delivers one message to one recipient. Implementations are
// synchronous and fallible; there is no retry inside a scan run.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer selects the mail transport from config. Incomplete provider
// credentials are a configuration error: the engine refuses to start rather
// than partially operate.
func NewMailer(cfg *config.Config, log *logger.Logger) (Mailer, error) {
	provider := strings.ToLower(cfg.Mail.Provider)

	switch provider {
	case "mailgun":
		if cfg.Mail.MailgunDomain == "" || cfg.Mail.MailgunAPIKey == "" || cfg.Mail.SenderEmail == "" {
			return nil, fmt.Errorf("mailgun provider requires MAILGUN_DOMAIN, MAILGUN_API_KEY and MAIL_SENDER")
		}
		log.WithField("domain", cfg.Mail.MailgunDomain).Info("Mailgun mailer initialized")
		return &MailgunMailer{
			mg:         mailgun.NewMailgun(cfg.Mail.MailgunDomain, cfg.Mail.MailgunAPIKey),
			sender:     cfg.Mail.SenderEmail,
			senderName: cfg.Mail.SenderName,
		}, nil

	case "smtp":
		if cfg.Mail.SMTPHost == "" || cfg.Mail.SMTPUser == "" || cfg.Mail.SMTPPassword == "" || cfg.Mail.SenderEmail == "" {
			return nil, fmt.Errorf("smtp provider requires SMTP_HOST, SMTP_USER, SMTP_PASSWORD and MAIL_SENDER")
		}
		log.WithField("host", cfg.Mail.SMTPHost).Info("SMTP mailer initialized")
		return &SMTPMailer{
			host:     cfg.Mail.SMTPHost,
			port:     cfg.Mail.SMTPPort,
			user:     cfg.Mail.SMTPUser,
			password: cfg.Mail.SMTPPassword,
			sender:   cfg.Mail.SenderEmail,
		}, nil

	case "log":
		// Development transport: messages are logged, never delivered.
		log.Warn("Using log-only mailer; no email will be delivered")
		return &LogMailer{log: log}, nil

	default:
		return nil, fmt.Errorf("unknown mail provider %q (expected mailgun, smtp or log)", cfg.Mail.Provider)
	}
}

// MailgunMailer delivers via the Mailgun API.
type MailgunMailer struct {
	mg         mailgun.Mailgun
	sender     string
	senderName string
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject, body string) error {
	from := m.sender
	if m.senderName != "" {
		from = fmt.Sprintf("%s <%s>", m.senderName, m.sender)
	}

	message := m.mg.NewMessage(from, subject, body, to)

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}

// SMTPMailer delivers via plain-auth SMTP.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	sender   string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	headers := []string{
		fmt.Sprintf("From: %s", m.sender),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	if err := smtp.SendMail(addr, auth, m.sender, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer records sends in the log instead of delivering. Used in
// development; tests use their own fakes.
type LogMailer struct {
	log *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
	}).Info("Mail send (log-only transport)")
	return nil
}
