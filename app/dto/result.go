package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
)

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthResult struct {
	User   *entity.User
	Tokens *TokenPair
}

// SessionRefresh is the outcome of rotating an expired session.
// Only the user id is known to the caller; profile claims are not reloaded into the request.
type SessionRefresh struct {
	UserID uint64
	Tokens *TokenPair
}

type PurgeResult struct {
	ActiveTokens       int64
	VerificationTokens int64
	PasswordResets     int64
}
