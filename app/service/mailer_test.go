package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/app/types"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer(t *testing.T) {
	cfg := testConfig()

	mailer, err := service.NewMailer(cfg)
	require.NoError(t, err)
	assert.IsType(t, &service.LogMailer{}, mailer)

	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"}
	mailer, err = service.NewMailer(cfg)
	require.NoError(t, err)
	assert.IsType(t, &service.SMTPMailer{}, mailer)
}

func TestNewMailer_ProductionRequiresRelay(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.EnvProduction

	mailer, err := service.NewMailer(cfg)
	assert.ErrorIs(t, err, service.ErrMailerNotConfigured)
	assert.Nil(t, mailer)

	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"}
	mailer, err = service.NewMailer(cfg)
	require.NoError(t, err)
	assert.IsType(t, &service.SMTPMailer{}, mailer)
}

func TestNewSMTPMailer_InvalidPort(t *testing.T) {
	_, err := service.NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "smtp"})
	assert.Error(t, err)
}

func TestLogMailer_Send(t *testing.T) {
	err := (&service.LogMailer{}).Send(context.Background(), service.Message{
		To:      "jane@example.com",
		Subject: "Verify your account",
		Body:    "link",
	})
	assert.NoError(t, err)
}

func TestSMTPMailer_ComposeSetsRequiredHeaders(t *testing.T) {
	mailer, err := service.NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"})
	require.NoError(t, err)

	msg, err := mailer.Compose(service.Message{To: "jane@example.com", Subject: "Bienvenue à bord", Body: "hello"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Date: ")
	assert.Contains(t, raw, "Message-ID: <")
	assert.Contains(t, raw, "From: <no-reply@example.com>")
	assert.Contains(t, raw, "To: <jane@example.com>")
	assert.Contains(t, raw, "Subject: =?UTF-8?")
	assert.NotContains(t, raw, "Subject: Bienvenue à bord")
}

func TestSMTPMailer_ComposeRejectsBadAddress(t *testing.T) {
	mailer, err := service.NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"})
	require.NoError(t, err)

	_, err = mailer.Compose(service.Message{To: "not an address", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	mailer, err := service.NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: "1", From: "no-reply@localhost", Timeout: time.Second})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), service.Message{To: "jane@example.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestPasswordResetMessage_UsesConfiguredTTL(t *testing.T) {
	cases := []struct {
		ttl  time.Duration
		want string
	}{
		{ttl: time.Hour, want: "valid for 1 hour"},
		{ttl: 30 * time.Minute, want: "valid for 30 minutes"},
		{ttl: 2 * time.Hour, want: "valid for 2 hours"},
		{ttl: 90 * time.Minute, want: "valid for 90 minutes"},
	}

	for _, tc := range cases {
		db, mock := newMockDB(t)
		cfg := testConfig()
		cfg.Tokens.ResetTTL = tc.ttl
		mailer := &recordingMailer{}
		svc := service.NewAuthService(db, service.NewTokenIssuer(cfg), mailer, cfg)

		mock.ExpectQuery(findUserByEmailQuery).WillReturnRows(userRows(t, 9, "jane@example.com", true))
		mock.ExpectExec(upsertResetQuery).WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, svc.ForgotPassword(context.Background(), &types.ForgotPasswordRequest{Email: "jane@example.com"}))

		sent := mailer.sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Body, tc.want)
		assert.NotContains(t, sent[0].Body, "one hour")
	}
}

func TestVerificationMessage_UsesConfiguredTTL(t *testing.T) {
	svc, mock, mailer, _ := newAuthService(t)

	mock.ExpectQuery(findUserByEmailQuery).WillReturnRows(userRows(t, 9, "jane@example.com", false))
	mock.ExpectExec(upsertVerificationQuery).WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, svc.RequestVerificationToken(context.Background(), &types.RequestVerificationTokenRequest{Email: "jane@example.com"}))

	sent := mailer.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "valid for 24 hours")
}
