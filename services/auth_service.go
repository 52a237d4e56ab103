package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/repository"
	"github.com/FloFRCD/nutrition-app-sub001/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 72 * time.Hour

type AuthService struct {
	accounts     *repository.AccountRepository
	jwtSecretKey []byte
}

func NewAuthService(accounts *repository.AccountRepository, jwtSecret string) *AuthService {
	return &AuthService{accounts: accounts, jwtSecretKey: []byte(jwtSecret)}
}

// Register creates an account and returns it with a fresh token.
func (a *AuthService) Register(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := a.accounts.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	account := &models.Account{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := a.accounts.Create(ctx, account); err != nil {
		return nil, "", fmt.Errorf("create account: %w", err)
	}
	logger.Info("account registered", zap.String("user_id", account.ID))

	token, err := util.GenerateJWT(account.ID, account.Email, a.jwtSecretKey, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies the credentials and issues a token.
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	account, err := a.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !util.CheckPasswordHash(password, account.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(account.ID, account.Email, a.jwtSecretKey, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Me returns the account behind an authenticated user id.
func (a *AuthService) Me(ctx context.Context, userID string) (*models.Account, error) {
	account, err := a.accounts.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return account, err
}

// Authenticate returns the user id carried by a valid token.
func (a *AuthService) Authenticate(token string) (string, error) {
	claims, err := util.ValidateJWT(token, a.jwtSecretKey)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
