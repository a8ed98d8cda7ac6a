package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/dto"
	"github.com/vibast-solutions/ms-go-clubs/app/entity"
	"github.com/vibast-solutions/ms-go-clubs/app/repository"
	"github.com/vibast-solutions/ms-go-clubs/app/types"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken              = errors.New("email is already registered")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidToken            = errors.New("invalid token")
	ErrTokenExpired            = errors.New("token has expired")
	ErrTokenNotFound           = errors.New("token not found")
	ErrSessionRevoked          = errors.New("session is no longer active")
	ErrPasswordMismatch        = errors.New("current password is incorrect")
	ErrAccountAlreadyConfirmed = errors.New("account is already confirmed")
	ErrWeakPassword            = errors.New("password does not meet policy requirements")
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindProfilePicture(ctx context.Context, id uint64) (sql.NullString, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	MarkConfirmed(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) (int64, error)
}

type activeTokenRepository interface {
	Upsert(ctx context.Context, token *entity.ActiveToken) error
	Rotate(ctx context.Context, userID uint64, oldToken, newToken string, expiresAt, now time.Time) (bool, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type oneTimeTokenRepository interface {
	Upsert(ctx context.Context, token *entity.OneTimeToken) error
	FindByToken(ctx context.Context, token string) (*entity.OneTimeToken, error)
	DeleteByID(ctx context.Context, id uint64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	db               *sql.DB
	userRepo         userRepository
	activeTokenRepo  activeTokenRepository
	verificationRepo oneTimeTokenRepository
	resetRepo        oneTimeTokenRepository
	issuer           *TokenIssuer
	mailer           Mailer
	cfg              *config.Config
}

func NewAuthService(db *sql.DB, issuer *TokenIssuer, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		db:               db,
		userRepo:         repository.NewUserRepository(db),
		activeTokenRepo:  repository.NewActiveTokenRepository(db),
		verificationRepo: repository.NewVerificationTokenRepository(db),
		resetRepo:        repository.NewPasswordResetRepository(db),
		issuer:           issuer,
		mailer:           mailer,
		cfg:              cfg,
	}
}

// Register creates the user, its verification token and its first session in one transaction.
// The verification mail is sent after commit and its failure does not fail registration.
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*dto.AuthResult, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	verificationToken, err := generateOneTimeToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Name:                    req.Name,
		Email:                   email,
		PasswordHash:            hashedPassword,
		IsConfirmed:             false,
		NotificationPreferences: entity.DefaultNotificationPreferences(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err = repository.NewVerificationTokenRepository(tx).Upsert(ctx, &entity.OneTimeToken{
		UserID:    user.ID,
		Token:     verificationToken,
		ExpiresAt: now.Add(s.cfg.Tokens.VerificationTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	tokens, err := s.issuer.Issue(ctx, repository.NewActiveTokenRepository(tx), user)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if err = s.mailer.Send(ctx, verificationMessage(s.cfg.App.FrontendURL, user, verificationToken, s.cfg.Tokens.VerificationTTL)); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to send verification email")
	}

	return &dto.AuthResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Login(ctx context.Context, req *types.LoginRequest) (*dto.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issuer.Issue(ctx, s.activeTokenRepo, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResult{User: user, Tokens: tokens}, nil
}

// Logout forgets the given refresh token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.activeTokenRepo.DeleteByToken(ctx, refreshToken)
	return err
}

func (s *AuthService) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	resetToken, err := generateOneTimeToken()
	if err != nil {
		return err
	}

	now := time.Now()
	if err = s.resetRepo.Upsert(ctx, &entity.OneTimeToken{
		UserID:    user.ID,
		Token:     resetToken,
		ExpiresAt: now.Add(s.cfg.Tokens.ResetTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	return s.mailer.Send(ctx, passwordResetMessage(s.cfg.App.FrontendURL, user, resetToken, s.cfg.Tokens.ResetTTL))
}

// ResetPassword consumes the reset token. An expired token is rejected and left in place.
func (s *AuthService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error {
	token, err := s.resetRepo.FindByToken(ctx, req.ResetToken)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrInvalidToken
	}
	if token.Expired(time.Now()) {
		return ErrTokenExpired
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	if err = repository.NewPasswordResetRepository(tx).DeleteByID(ctx, token.ID); err != nil {
		return err
	}
	if err = repository.NewActiveTokenRepository(tx).DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *AuthService) VerifyAccount(ctx context.Context, req *types.VerifyAccountRequest) error {
	token, err := s.verificationRepo.FindByToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrTokenNotFound
	}
	if token.Expired(time.Now()) {
		return ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).MarkConfirmed(ctx, user.ID); err != nil {
		return err
	}
	if err = repository.NewVerificationTokenRepository(tx).DeleteByID(ctx, token.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *AuthService) RequestVerificationToken(ctx context.Context, req *types.RequestVerificationTokenRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsConfirmed {
		return ErrAccountAlreadyConfirmed
	}

	verificationToken, err := generateOneTimeToken()
	if err != nil {
		return err
	}

	now := time.Now()
	if err = s.verificationRepo.Upsert(ctx, &entity.OneTimeToken{
		UserID:    user.ID,
		Token:     verificationToken,
		ExpiresAt: now.Add(s.cfg.Tokens.VerificationTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	return s.mailer.Send(ctx, verificationMessage(s.cfg.App.FrontendURL, user, verificationToken, s.cfg.Tokens.VerificationTTL))
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	return s.issuer.ParseAccessToken(tokenString)
}

// RefreshSession trades a refresh token for a new pair. The stored token is swapped
// with a conditional update, so of two concurrent refreshes with the same token only
// one succeeds; the other gets ErrSessionRevoked.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (*dto.SessionRefresh, error) {
	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionRevoked
	}

	tokens, err := s.issuer.Mint(user)
	if err != nil {
		return nil, err
	}

	rotated, err := s.activeTokenRepo.Rotate(ctx, user.ID, refreshToken, tokens.RefreshToken, tokens.RefreshExpiresAt, time.Now())
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrSessionRevoked
	}

	return &dto.SessionRefresh{UserID: user.ID, Tokens: tokens}, nil
}

// RevokeSessions drops the user's active refresh token, forcing a new login once the
// current access token expires.
func (s *AuthService) RevokeSessions(ctx context.Context, userID uint64) error {
	return s.activeTokenRepo.DeleteByUserID(ctx, userID)
}

// PurgeExpired removes every expired active, verification and reset token.
func (s *AuthService) PurgeExpired(ctx context.Context) (*dto.PurgeResult, error) {
	now := time.Now()
	result := &dto.PurgeResult{}

	var err error
	if result.ActiveTokens, err = s.activeTokenRepo.DeleteExpired(ctx, now); err != nil {
		return nil, err
	}
	if result.VerificationTokens, err = s.verificationRepo.DeleteExpired(ctx, now); err != nil {
		return nil, err
	}
	if result.PasswordResets, err = s.resetRepo.DeleteExpired(ctx, now); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *AuthService) RefreshCookie(tokens *dto.TokenPair) *http.Cookie {
	return s.issuer.RefreshCookie(tokens)
}

func (s *AuthService) ClearedRefreshCookie() *http.Cookie {
	return s.issuer.ClearedRefreshCookie()
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Password.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// generateOneTimeToken returns 32 random bytes as 64 hex characters.
func generateOneTimeToken() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return hex.EncodeToString(secret), nil
}
