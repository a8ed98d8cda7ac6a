package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
)

const (
	verificationTokensTable = "verification_tokens"
	passwordResetsTable     = "password_resets"
)

// OneTimeTokenRepository manages single-use, expiring tokens keyed one per user.
// The same shape backs email verification and password reset.
type OneTimeTokenRepository struct {
	db    DBTX
	table string
}

func NewVerificationTokenRepository(db DBTX) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: db, table: verificationTokensTable}
}

func NewPasswordResetRepository(db DBTX) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: db, table: passwordResetsTable}
}

// Upsert replaces any outstanding token of the user with the given one.
func (r *OneTimeTokenRepository) Upsert(ctx context.Context, token *entity.OneTimeToken) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token), expires_at = VALUES(expires_at), created_at = VALUES(created_at)
	`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *OneTimeTokenRepository) FindByToken(ctx context.Context, token string) (*entity.OneTimeToken, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, token, expires_at, created_at
		FROM %s WHERE token = ?
	`, r.table)
	t := &entity.OneTimeToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&t.ID,
		&t.UserID,
		&t.Token,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *OneTimeTokenRepository) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table), id)
	return err
}

func (r *OneTimeTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, r.table), now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
