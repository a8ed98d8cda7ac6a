package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextKeyUserID         = "user_id"
	ContextKeyUserName       = "user_name"
	ContextKeyUserEmail      = "user_email"
	ContextKeyProfilePicture = "profile_picture"
	ContextKeyNewAccessToken = "new_access_token"

	HeaderNewAccessToken = "X-Access-Token"
)

type sessionService interface {
	ValidateAccessToken(tokenString string) (*service.AccessClaims, error)
	RefreshSession(ctx context.Context, refreshToken string) (*dto.SessionRefresh, error)
	RefreshCookie(tokens *dto.TokenPair) *http.Cookie
}

type profilePictureLookup interface {
	ProfilePicture(ctx context.Context, userID uint64) (string, error)
}

type AuthMiddleware struct {
	sessions sessionService
	pictures profilePictureLookup
}

func NewAuthMiddleware(sessions sessionService, pictures profilePictureLookup) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, pictures: pictures}
}

// RequireAuth admits requests with a valid bearer token. An expired access token is
// replaced transparently when the refresh cookie still matches the stored session.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing authorization header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid authorization header format"})
		}

		claims, err := m.sessions.ValidateAccessToken(parts[1])
		switch {
		case err == nil:
			c.Set(ContextKeyUserID, claims.ID)
			c.Set(ContextKeyUserName, claims.Name)
			c.Set(ContextKeyUserEmail, claims.Email)
			m.attachProfilePicture(c, claims.ID)
			return next(c)
		case errors.Is(err, service.ErrTokenExpired):
			return m.refresh(c, next)
		default:
			logrus.Debug("Invalid access token")
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "invalid token"})
		}
	}
}

func (m *AuthMiddleware) refresh(c echo.Context, next echo.HandlerFunc) error {
	cookie, err := c.Cookie(service.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		logrus.Debug("Access token expired and no refresh token cookie present")
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refresh token is missing"})
	}

	result, err := m.sessions.RefreshSession(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) ||
			errors.Is(err, service.ErrTokenExpired) ||
			errors.Is(err, service.ErrSessionRevoked) {
			logrus.WithError(err).Debug("Refresh token rejected")
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "invalid refresh token"})
		}
		logrus.WithError(err).Error("Session refresh failed")
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.SetCookie(m.sessions.RefreshCookie(result.Tokens))
	c.Response().Header().Set(HeaderNewAccessToken, result.Tokens.AccessToken)
	c.Set(ContextKeyUserID, result.UserID)
	c.Set(ContextKeyNewAccessToken, result.Tokens.AccessToken)

	logrus.WithField("user_id", result.UserID).Info("Session refreshed")
	return next(c)
}

func (m *AuthMiddleware) attachProfilePicture(c echo.Context, userID uint64) {
	if m.pictures == nil {
		return
	}

	picture, err := m.pictures.ProfilePicture(c.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load profile picture")
		return
	}
	if picture != "" {
		c.Set(ContextKeyProfilePicture, picture)
	}
}
