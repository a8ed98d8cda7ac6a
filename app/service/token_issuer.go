package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const RefreshCookieName = "refreshToken"

// AccessClaims are carried by the bearer token on every protected request.
type AccessClaims struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims identify the user only; the token itself is also stored server-side.
type RefreshClaims struct {
	ID uint64 `json:"id"`
	jwt.RegisteredClaims
}

type activeTokenWriter interface {
	Upsert(ctx context.Context, token *entity.ActiveToken) error
}

type TokenIssuer struct {
	jwt           config.JWTConfig
	secureCookies bool
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		jwt:           cfg.JWT,
		secureCookies: cfg.IsProduction(),
	}
}

// Mint signs a new access/refresh pair without persisting anything.
func (i *TokenIssuer) Mint(user *entity.User) (*dto.TokenPair, error) {
	now := time.Now()

	access := &AccessClaims{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.jwt.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatUint(user.ID, 10),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString([]byte(i.jwt.Secret))
	if err != nil {
		return nil, err
	}

	refreshExpiresAt := now.Add(i.jwt.RefreshTokenTTL)
	refresh := &RefreshClaims{
		ID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString([]byte(i.jwt.RefreshSecret))
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Issue mints a pair and records the refresh token as the user's only active one.
func (i *TokenIssuer) Issue(ctx context.Context, store activeTokenWriter, user *entity.User) (*dto.TokenPair, error) {
	pair, err := i.Mint(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err = store.Upsert(ctx, &entity.ActiveToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	return pair, nil
}

// ParseAccessToken returns ErrTokenExpired for a well-signed but expired token
// and ErrInvalidToken for everything else.
func (i *TokenIssuer) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseHS256(tokenString, claims, i.jwt.Secret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseHS256(tokenString, claims, i.jwt.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) RefreshCookie(pair *dto.TokenPair) *http.Cookie {
	return i.cookie(pair.RefreshToken, int(time.Until(pair.RefreshExpiresAt).Seconds()), pair.RefreshExpiresAt)
}

func (i *TokenIssuer) ClearedRefreshCookie() *http.Cookie {
	return i.cookie("", -1, time.Unix(0, 0))
}

func (i *TokenIssuer) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if i.secureCookies {
		sameSite = http.SameSiteStrictMode
	}

	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   i.secureCookies,
		SameSite: sameSite,
	}
}

func parseHS256(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
