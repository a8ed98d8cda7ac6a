package repository

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
)

type ActiveTokenRepository struct {
	db DBTX
}

func NewActiveTokenRepository(db DBTX) *ActiveTokenRepository {
	return &ActiveTokenRepository{db: db}
}

// Upsert stores token as the user's only active refresh token, replacing any previous one.
func (r *ActiveTokenRepository) Upsert(ctx context.Context, token *entity.ActiveToken) error {
	query := `
		INSERT INTO active_tokens (user_id, token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token), expires_at = VALUES(expires_at), updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	return err
}

// Rotate swaps oldToken for newToken only while oldToken is still stored and unexpired.
// It reports false when another writer got there first.
func (r *ActiveTokenRepository) Rotate(ctx context.Context, userID uint64, oldToken, newToken string, expiresAt, now time.Time) (bool, error) {
	query := `
		UPDATE active_tokens SET token = ?, expires_at = ?, updated_at = ?
		WHERE user_id = ? AND token = ? AND expires_at > ?
	`
	result, err := r.db.ExecContext(ctx, query, newToken, expiresAt, now, userID, oldToken, now)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *ActiveTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM active_tokens WHERE token = ?`, token)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ActiveTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM active_tokens WHERE user_id = ?`, userID)
	return err
}

func (r *ActiveTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM active_tokens WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
