package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/entity"
)

const userSelect = `
		SELECT id, name, email, password_hash, is_confirmed, notification_preferences_json,
		       profile_picture, created_at, updated_at
		FROM users`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and sets its ID. A taken email yields ErrDuplicateEntry.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	prefs, err := json.Marshal(user.NotificationPreferences)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (name, email, password_hash, is_confirmed, notification_preferences_json, profile_picture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsConfirmed,
		string(prefs),
		user.ProfilePicture,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE email = ?`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE id = ?`, id)
}

// FindProfilePicture returns the stored picture key without loading the full row.
func (r *UserRepository) FindProfilePicture(ctx context.Context, id uint64) (sql.NullString, error) {
	var picture sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT profile_picture FROM users WHERE id = ?`, id).Scan(&picture)
	if err == sql.ErrNoRows {
		return sql.NullString{}, nil
	}
	return picture, err
}

// UpdateProfile writes the user-editable profile columns only.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	prefs, err := json.Marshal(user.NotificationPreferences)
	if err != nil {
		return err
	}

	query := `
		UPDATE users SET
			name = ?,
			notification_preferences_json = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err = r.db.ExecContext(ctx, query,
		user.Name,
		string(prefs),
		user.UpdatedAt,
		user.ID,
	)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id)
	return err
}

func (r *UserRepository) MarkConfirmed(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_confirmed = TRUE, updated_at = ? WHERE id = ?`,
		time.Now(), id)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	var prefsJSON string
	if err := scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsConfirmed,
		&prefsJSON,
		&user.ProfilePicture,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.NotificationPreferences = entity.DefaultNotificationPreferences()
	if prefsJSON != "" {
		if err := json.Unmarshal([]byte(prefsJSON), &user.NotificationPreferences); err != nil {
			return nil, err
		}
	}

	return user, nil
}
