package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.authService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			logrus.WithField("email", req.Email).Warn("Register failed: email already registered")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Email is already registered"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", result.User.ID).Info("User registered")
	ctx.SetCookie(c.authService.RefreshCookie(result.Tokens))
	return ctx.JSON(http.StatusCreated, dto.AuthResponse{
		Message:     "Registration successful",
		AccessToken: result.Tokens.AccessToken,
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.authService.Login(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid credentials"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	ctx.SetCookie(c.authService.RefreshCookie(result.Tokens))
	return ctx.JSON(http.StatusOK, dto.AuthResponse{
		Message:     "Login successful",
		AccessToken: result.Tokens.AccessToken,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	cookie, err := ctx.Cookie(service.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		logrus.Debug("Logout without refresh token cookie")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refresh token is missing"})
	}

	if err = c.authService.Logout(ctx.Request().Context(), cookie.Value); err != nil {
		logrus.WithError(err).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	ctx.SetCookie(c.authService.ClearedRefreshCookie())
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.authService.ForgotPassword(ctx.Request().Context(), req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Password reset requested for unknown email")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset request failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Password reset email sent"})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.authService.ResetPassword(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			logrus.Warn("Password reset failed: unknown token")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid reset token"})
		case errors.Is(err, service.ErrTokenExpired):
			logrus.Warn("Password reset failed: token expired")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "reset token has expired"})
		case errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Password reset failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset completed")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Password has been reset"})
}

func (c *AuthController) VerifyAccount(ctx echo.Context) error {
	req, err := types.NewVerifyAccountRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind verify account request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.authService.VerifyAccount(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound), errors.Is(err, service.ErrUserNotFound):
			logrus.Warn("Account verification failed: unknown token")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "verification token not found"})
		case errors.Is(err, service.ErrTokenExpired):
			logrus.Warn("Account verification failed: token expired")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "verification token has expired"})
		}
		logrus.WithError(err).Error("Account verification failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Account verified successfully"})
}

func (c *AuthController) RequestVerificationToken(ctx echo.Context) error {
	req, err := types.NewRequestVerificationTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind verification token request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.authService.RequestVerificationToken(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		case errors.Is(err, service.ErrAccountAlreadyConfirmed):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "account is already confirmed"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Verification token request failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Verification email sent"})
}
