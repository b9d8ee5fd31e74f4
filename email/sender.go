// Package email delivers rendered reports over SMTP as multipart mail with
// optional file attachments.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"f0oster/zbxspy/diff"
	"f0oster/zbxspy/metrics"
)

// Config carries the SMTP account settings.
type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	// UseTLS selects STARTTLS; when false the connection uses implicit
	// TLS from the first byte.
	UseTLS bool
}

// Sender builds and sends report mail through one SMTP account.
type Sender struct {
	cfg Config
	log *slog.Logger
}

func NewSender(cfg Config, log *slog.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// Report is one outbound report mail.
type Report struct {
	Recipients []string
	// Label names the covered span in subjects and headings, either a
	// single date or a range like "Weekly 2025-08-17 to 2025-08-23".
	Label       string
	Summary     diff.Summary
	HasChanges  bool
	Comparison  diff.Result
	Attachments []string
}

// Send delivers one report mail, with a plain-text body and an HTML
// alternative.
func (s *Sender) Send(ctx context.Context, rep Report) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.Username); err != nil {
		return fmt.Errorf("set sender %s: %w", s.cfg.Username, err)
	}
	if err := msg.To(rep.Recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.SetMessageIDWithValue(uuid.NewString())
	msg.Subject(subject(rep))
	msg.SetBodyString(mail.TypeTextPlain, textBody(rep))

	html, err := htmlBody(rep)
	if err != nil {
		return fmt.Errorf("render email body: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	for _, path := range rep.Attachments {
		msg.AttachFile(path)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(s.cfg.Server, opts...)
	if err != nil {
		metrics.EmailsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("smtp client for %s: %w", s.cfg.Server, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		metrics.EmailsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("send report mail: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("ok").Inc()
	s.log.Info("report email sent",
		"recipients", len(rep.Recipients),
		"attachments", len(rep.Attachments),
		"label", rep.Label,
	)
	return nil
}
