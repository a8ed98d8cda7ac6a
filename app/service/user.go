package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/app/repository"
	"github.com/vibast-solutions/ms-go-clubs/app/types"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	db       *sql.DB
	userRepo userRepository
	issuer   *TokenIssuer
	pictures ProfilePictureResolver
	cfg      *config.Config
}

func NewUserService(db *sql.DB, issuer *TokenIssuer, pictures ProfilePictureResolver, cfg *config.Config) *UserService {
	return &UserService{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		issuer:   issuer,
		pictures: pictures,
		cfg:      cfg,
	}
}

func (s *UserService) Profile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ProfilePicture returns a loadable URL for the user's picture, or "" when none is set.
func (s *UserService) ProfilePicture(ctx context.Context, userID uint64) (string, error) {
	key, err := s.userRepo.FindProfilePicture(ctx, userID)
	if err != nil {
		return "", err
	}
	if !key.Valid || key.String == "" {
		return "", nil
	}
	return s.pictures.Resolve(ctx, key.String)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.NotificationPreferences != nil {
		user.NotificationPreferences = req.NotificationPreferences.Apply(user.NotificationPreferences)
	}

	if err = s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the hash, drops the existing session and issues a fresh one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) (*dto.AuthResult, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, ErrPasswordMismatch
	}
	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashed)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).UpdatePassword(ctx, user.ID, user.PasswordHash); err != nil {
		return nil, err
	}

	activeTokens := repository.NewActiveTokenRepository(tx)
	if err = activeTokens.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	tokens, err := s.issuer.Issue(ctx, activeTokens, user)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &dto.AuthResult{User: user, Tokens: tokens}, nil
}

// DeleteAccount removes the user. Tokens go with it through the foreign key cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint64, req *types.DeleteAccountRequest) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return ErrPasswordMismatch
	}

	rows, err := s.userRepo.Delete(ctx, user.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
