package entity

import "time"

// ActiveToken is the single refresh token currently accepted for a user.
type ActiveToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OneTimeToken backs both verification_tokens and password_resets rows.
type OneTimeToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *OneTimeToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
