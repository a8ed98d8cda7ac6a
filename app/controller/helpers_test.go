package controller_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/controller"
	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
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
	deleteActiveByTokenQuery = `(?s)DELETE FROM active_tokens WHERE token = \?`
	deleteActiveByUserQuery  = `(?s)DELETE FROM active_tokens WHERE user_id = \?`
	upsertVerificationQuery  = `(?s)INSERT INTO verification_tokens .+ON DUPLICATE KEY UPDATE`
	findVerificationQuery    = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM verification_tokens WHERE token = \?`
	deleteVerificationQuery  = `(?s)DELETE FROM verification_tokens WHERE id = \?`
	upsertResetQuery         = `(?s)INSERT INTO password_resets .+ON DUPLICATE KEY UPDATE`
	findResetQuery           = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM password_resets WHERE token = \?`

	testPassword = "password123"
)

// tooLongPassword is one byte past what bcrypt accepts.
var tooLongPassword = strings.Repeat("p", config.MaxPasswordBytes+1)

var userColumns = []string{
	"id", "name", "email", "password_hash", "is_confirmed", "notification_preferences_json",
	"profile_picture", "created_at", "updated_at",
}

var oneTimeTokenColumns = []string{"id", "user_id", "token", "expires_at", "created_at"}

type controllers struct {
	auth   *controller.AuthController
	user   *controller.UserController
	issuer *service.TokenIssuer
}

func newControllerWithMock(t *testing.T) (*controllers, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", FrontendURL: "http://localhost:3000"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			RefreshSecret:   "test-refresh-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
		},
		Password: config.PasswordConfig{
			Policy:     config.PasswordPolicy{MinLength: 8},
			BcryptCost: bcrypt.MinCost,
		},
	}

	issuer := service.NewTokenIssuer(cfg)
	authService := service.NewAuthService(db, issuer, &service.LogMailer{}, cfg)
	userService := service.NewUserService(db, issuer, service.PassthroughResolver{}, cfg)

	return &controllers{
		auth:   controller.NewAuthController(authService),
		user:   controller.NewUserController(userService, authService),
		issuer: issuer,
	}, mock, func() { _ = db.Close() }
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	return body
}

func userRows(t *testing.T, id uint64, email string, confirmed bool, picture sql.NullString) *sqlmock.Rows {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	var pictureValue any
	if picture.Valid {
		pictureValue = picture.String
	}

	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(
		id, "Jane", email, string(hashed), confirmed,
		`{"messages":true,"events":false,"discussions":true,"club_updates":true}`,
		pictureValue, now, now,
	)
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == service.RefreshCookieName {
			return cookie
		}
	}
	return nil
}
