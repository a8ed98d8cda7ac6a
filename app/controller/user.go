package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/middleware"
	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserController(userService *service.UserService, authService *service.AuthService) *UserController {
	return &UserController{userService: userService, authService: authService}
}

func (c *UserController) Profile(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.userService.Profile(ctx.Request().Context(), userID)
	if err != nil {
		return c.userError(ctx, userID, "Profile lookup failed", err)
	}

	return ctx.JSON(http.StatusOK, dto.NewProfileResponse(user, c.profilePicture(ctx, userID), refreshedAccessToken(ctx)))
}

func (c *UserController) UpdateProfile(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	user, err := c.userService.UpdateProfile(ctx.Request().Context(), userID, req)
	if err != nil {
		return c.userError(ctx, userID, "Profile update failed", err)
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, dto.NewProfileResponse(user, c.profilePicture(ctx, userID), refreshedAccessToken(ctx)))
}

func (c *UserController) ChangePassword(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	req, err := types.NewChangePasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.userService.ChangePassword(ctx.Request().Context(), userID, req)
	if err != nil {
		return c.userError(ctx, userID, "Password change failed", err)
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	ctx.SetCookie(c.authService.RefreshCookie(result.Tokens))
	// supersedes any token the middleware issued earlier in this request
	ctx.Response().Header().Set(middleware.HeaderNewAccessToken, result.Tokens.AccessToken)
	ctx.Set(middleware.ContextKeyNewAccessToken, result.Tokens.AccessToken)
	return ctx.JSON(http.StatusOK, dto.AuthResponse{
		Message:     "Password changed successfully",
		AccessToken: result.Tokens.AccessToken,
	})
}

func (c *UserController) DeleteAccount(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	req, err := types.NewDeleteAccountRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind delete account request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userService.DeleteAccount(ctx.Request().Context(), userID, req); err != nil {
		return c.userError(ctx, userID, "Account deletion failed", err)
	}

	logrus.WithField("user_id", userID).Info("Account deleted")
	ctx.SetCookie(c.authService.ClearedRefreshCookie())
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Account deleted successfully"})
}

func (c *UserController) userError(ctx echo.Context, userID uint64, msg string, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		logrus.WithField("user_id", userID).Warn(msg + ": user not found")
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
	case errors.Is(err, service.ErrPasswordMismatch):
		logrus.WithField("user_id", userID).Warn(msg + ": wrong password")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "current password is incorrect"})
	case errors.Is(err, service.ErrWeakPassword):
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	logrus.WithError(err).WithField("user_id", userID).Error(msg)
	return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}

// profilePicture prefers the value attached by the auth middleware. After a session
// refresh only the user id is known, so it is looked up here instead.
func (c *UserController) profilePicture(ctx echo.Context, userID uint64) string {
	if picture, ok := ctx.Get(middleware.ContextKeyProfilePicture).(string); ok {
		return picture
	}
	if _, refreshed := ctx.Get(middleware.ContextKeyNewAccessToken).(string); !refreshed {
		return ""
	}

	picture, err := c.userService.ProfilePicture(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load profile picture")
		return ""
	}
	return picture
}

func currentUserID(ctx echo.Context) (uint64, bool) {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uint64)
	return userID, ok && userID != 0
}

func refreshedAccessToken(ctx echo.Context) string {
	token, _ := ctx.Get(middleware.ContextKeyNewAccessToken).(string)
	return token
}
