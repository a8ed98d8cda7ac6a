package types

import (
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"

	"github.com/labstack/echo/v4"
)

var ErrPasswordConfirmation = errors.New("password confirmation does not match")

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	if r.PasswordConfirmation != "" && r.PasswordConfirmation != r.Password {
		return ErrPasswordConfirmation
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}

	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func NewForgotPasswordRequestFromContext(ctx echo.Context) (*ForgotPasswordRequest, error) {
	var body ForgotPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ForgotPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}

	return nil
}

type ResetPasswordRequest struct {
	ResetToken           string `json:"reset_token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.ResetToken) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("reset_token and password are required")
	}
	if r.PasswordConfirmation != r.Password {
		return ErrPasswordConfirmation
	}

	return nil
}

type VerifyAccountRequest struct {
	Token string `query:"token"`
}

func NewVerifyAccountRequestFromContext(ctx echo.Context) (*VerifyAccountRequest, error) {
	var body VerifyAccountRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *VerifyAccountRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("token is required")
	}

	return nil
}

type RequestVerificationTokenRequest struct {
	Email string `json:"email"`
}

func NewRequestVerificationTokenRequestFromContext(ctx echo.Context) (*RequestVerificationTokenRequest, error) {
	var body RequestVerificationTokenRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RequestVerificationTokenRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}

	return nil
}

// NotificationPreferencesUpdate is a partial preferences body. Omitted fields keep their stored value.
type NotificationPreferencesUpdate struct {
	Messages    *bool `json:"messages"`
	Events      *bool `json:"events"`
	Discussions *bool `json:"discussions"`
	ClubUpdates *bool `json:"club_updates"`
}

func (u *NotificationPreferencesUpdate) Apply(prefs entity.NotificationPreferences) entity.NotificationPreferences {
	if u.Messages != nil {
		prefs.Messages = *u.Messages
	}
	if u.Events != nil {
		prefs.Events = *u.Events
	}
	if u.Discussions != nil {
		prefs.Discussions = *u.Discussions
	}
	if u.ClubUpdates != nil {
		prefs.ClubUpdates = *u.ClubUpdates
	}
	return prefs
}

type UpdateProfileRequest struct {
	Name                    *string                        `json:"name"`
	NotificationPreferences *NotificationPreferencesUpdate `json:"notification_preferences"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name == nil && r.NotificationPreferences == nil {
		return errors.New("name or notification_preferences is required")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}

	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func NewChangePasswordRequestFromContext(ctx echo.Context) (*ChangePasswordRequest, error) {
	var body ChangePasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ChangePasswordRequest) Validate() error {
	if strings.TrimSpace(r.CurrentPassword) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("current_password and password are required")
	}
	if r.PasswordConfirmation != r.Password {
		return ErrPasswordConfirmation
	}

	return nil
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

func NewDeleteAccountRequestFromContext(ctx echo.Context) (*DeleteAccountRequest, error) {
	var body DeleteAccountRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *DeleteAccountRequest) Validate() error {
	if strings.TrimSpace(r.Password) == "" {
		return errors.New("password is required")
	}

	return nil
}
