package types_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/app/types"

	"github.com/labstack/echo/v4"
)

func TestRegisterRequestValidate(t *testing.T) {
	if err := (&types.RegisterRequest{Email: "a@example.com"}).Validate(); err == nil {
		t.Fatalf("expected error without password")
	}
	if err := (&types.RegisterRequest{Password: "secret"}).Validate(); err == nil {
		t.Fatalf("expected error without email")
	}

	mismatch := &types.RegisterRequest{Email: "a@example.com", Password: "secret", PasswordConfirmation: "other"}
	if err := mismatch.Validate(); !errors.Is(err, types.ErrPasswordConfirmation) {
		t.Fatalf("expected confirmation error, got %v", err)
	}

	if err := (&types.RegisterRequest{Email: "a@example.com", Password: "secret"}).Validate(); err != nil {
		t.Fatalf("expected confirmation to be optional, got %v", err)
	}
}

func TestResetPasswordRequestValidate(t *testing.T) {
	if err := (&types.ResetPasswordRequest{Password: "x", PasswordConfirmation: "x"}).Validate(); err == nil {
		t.Fatalf("expected error without reset token")
	}

	req := &types.ResetPasswordRequest{ResetToken: "token", Password: "x"}
	if err := req.Validate(); !errors.Is(err, types.ErrPasswordConfirmation) {
		t.Fatalf("expected confirmation to be required, got %v", err)
	}
}

func TestChangePasswordRequestValidate(t *testing.T) {
	req := &types.ChangePasswordRequest{Password: "new", PasswordConfirmation: "new"}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected error without current password")
	}

	req.CurrentPassword = "old"
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateProfileRequestValidate(t *testing.T) {
	if err := (&types.UpdateProfileRequest{}).Validate(); err == nil {
		t.Fatalf("expected error for empty update")
	}

	blank := "   "
	if err := (&types.UpdateProfileRequest{Name: &blank}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestVerifyAccountRequestFromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/verify-account?token=abc123", nil)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := types.NewVerifyAccountRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if parsed.Token != "abc123" {
		t.Fatalf("expected token from query, got %q", parsed.Token)
	}
}

func TestUpdateProfileRequestFromBody(t *testing.T) {
	e := echo.New()
	body := `{"notification_preferences":{"messages":false,"events":true,"discussions":false,"club_updates":true}}`
	req := httptest.NewRequest(http.MethodPut, "/users/me", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if parsed.Name != nil {
		t.Fatalf("expected name to stay unset")
	}
	prefs := parsed.NotificationPreferences
	if prefs == nil || prefs.Messages == nil || *prefs.Messages || prefs.ClubUpdates == nil || !*prefs.ClubUpdates {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}
}

func TestNotificationPreferencesUpdateKeepsOmittedFields(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/users/me", strings.NewReader(`{"notification_preferences":{"messages":false}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if parsed.NotificationPreferences == nil {
		t.Fatalf("expected preferences to be set")
	}

	got := parsed.NotificationPreferences.Apply(entity.DefaultNotificationPreferences())
	want := entity.NotificationPreferences{Messages: false, Events: true, Discussions: true, ClubUpdates: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
