package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

const (
	findUserByEmailQuery     = `(?s)SELECT id, name, email, password_hash, is_confirmed, notification_preferences_json,\s+profile_picture, created_at, updated_at\s+FROM users WHERE email = \?`
	findUserByIDQuery        = `(?s)SELECT id, name, email, password_hash, is_confirmed, notification_preferences_json,\s+profile_picture, created_at, updated_at\s+FROM users WHERE id = \?`
	findProfilePictureQuery  = `(?s)SELECT profile_picture FROM users WHERE id = \?`
	insertUserQuery          = `(?s)INSERT INTO users \(`
	updateProfileQuery       = `(?s)UPDATE users SET\s+name = \?,\s+notification_preferences_json = \?,\s+updated_at = \?\s+WHERE id = \?`
	updatePasswordQuery      = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	markConfirmedQuery       = `(?s)UPDATE users SET is_confirmed = TRUE, updated_at = \? WHERE id = \?`
	deleteUserQuery          = `(?s)DELETE FROM users WHERE id = \?`
	upsertActiveTokenQuery   = `(?s)INSERT INTO active_tokens .+ON DUPLICATE KEY UPDATE`
	rotateActiveTokenQuery   = `(?s)UPDATE active_tokens SET token = \?, expires_at = \?, updated_at = \?\s+WHERE user_id = \? AND token = \? AND expires_at > \?`
	deleteActiveByTokenQuery = `(?s)DELETE FROM active_tokens WHERE token = \?`
	deleteActiveByUserQuery  = `(?s)DELETE FROM active_tokens WHERE user_id = \?`
	deleteExpiredActiveQuery = `(?s)DELETE FROM active_tokens WHERE expires_at <= \?`
	upsertVerificationQuery  = `(?s)INSERT INTO verification_tokens .+ON DUPLICATE KEY UPDATE`
	findVerificationQuery    = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM verification_tokens WHERE token = \?`
	deleteVerificationQuery  = `(?s)DELETE FROM verification_tokens WHERE id = \?`
	deleteExpiredVerifyQuery = `(?s)DELETE FROM verification_tokens WHERE expires_at <= \?`
	upsertResetQuery         = `(?s)INSERT INTO password_resets .+ON DUPLICATE KEY UPDATE`
	findResetQuery           = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM password_resets WHERE token = \?`
	deleteResetQuery         = `(?s)DELETE FROM password_resets WHERE id = \?`
	deleteExpiredResetQuery  = `(?s)DELETE FROM password_resets WHERE expires_at <= \?`

	testPassword = "Secret1!"
	// one byte past what bcrypt accepts
	tooLongPassword = "Secret1!" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	preferenceJSON  = `{"messages":true,"events":true,"discussions":true,"club_updates":true}`
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "is_confirmed", "notification_preferences_json",
	"profile_picture", "created_at", "updated_at",
}

var oneTimeTokenColumns = []string{"id", "user_id", "token", "expires_at", "created_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", FrontendURL: "https://clubs.example.com"},
		JWT: config.JWTConfig{
			Secret:          "access-secret",
			RefreshSecret:   "refresh-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{VerificationTTL: 24 * time.Hour, ResetTTL: time.Hour},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{
				MinLength:        8,
				RequireUppercase: true,
				RequireLowercase: true,
				RequireNumber:    true,
				RequireSpecial:   true,
			},
			BcryptCost: bcrypt.MinCost,
		},
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return string(hashed)
}

func userRows(t *testing.T, id uint64, email string, confirmed bool) *sqlmock.Rows {
	t.Helper()

	now := time.Now()
	return sqlmock.NewRows(userColumns).
		AddRow(id, "Jane", email, hashPassword(t, testPassword), confirmed, preferenceJSON, nil, now, now)
}

func testUser() *entity.User {
	return &entity.User{ID: 7, Name: "Jane", Email: "jane@example.com"}
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []service.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg service.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMailer) sent() []service.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]service.Message(nil), m.messages...)
}

var errMailDown = errors.New("mail relay unavailable")
