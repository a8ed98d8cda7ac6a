package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

var ErrMailerNotConfigured = errors.New("SMTP_HOST is required in production")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when a relay is configured. Outside production it
// falls back to a log mailer; in production a missing relay is a configuration error.
func NewMailer(cfg *config.Config) (Mailer, error) {
	if cfg.SMTP.Enabled() {
		mailer, err := NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		return mailer, nil
	}
	if cfg.IsProduction() {
		return nil, ErrMailerNotConfigured
	}
	return &LogMailer{}, nil
}

type SMTPMailer struct {
	from   string
	client *mail.Client
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", cfg.Port, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.From, client: client}, nil
}

// Compose builds the RFC 5322 message, including Date and Message-ID headers.
func (m *SMTPMailer) Compose(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.Compose(msg)
	if err != nil {
		return err
	}
	if err = m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct{}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}

func verificationMessage(frontendURL string, user *entity.User, token string, ttl time.Duration) Message {
	link := frontendURL + "/verify-account?token=" + url.QueryEscape(token)
	return Message{
		To:      user.Email,
		Subject: "Verify your account",
		Body: fmt.Sprintf("Hello %s,\n\nConfirm your email address by opening the link below. It is valid for %s:\n\n%s\n",
			displayName(user), validity(ttl), link),
	}
}

func passwordResetMessage(frontendURL string, user *entity.User, token string, ttl time.Duration) Message {
	link := frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	return Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. The link below is valid for %s:\n\n%s\n\nIf you did not request it, ignore this email.\n",
			displayName(user), validity(ttl), link),
	}
}

// validity renders a token lifetime as whole hours when it divides evenly, minutes otherwise.
func validity(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		return plural(int(ttl/time.Hour), "hour")
	}
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func displayName(user *entity.User) string {
	if strings.TrimSpace(user.Name) != "" {
		return user.Name
	}
	return user.Email
}
