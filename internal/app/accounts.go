package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"sms-dispatch/internal/auth"
	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/ports"
)

const minPasswordLength = 8

// TokenIssuer issues and verifies access tokens for account IDs.
type TokenIssuer interface {
	Issue(accountID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}

// AccountService handles signup, login and bearer-token authentication.
type AccountService struct {
	repo   ports.AccountRepository
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAccountService(repo ports.AccountRepository, tokens TokenIssuer, log *slog.Logger) *AccountService {
	return &AccountService{repo: repo, tokens: tokens, log: log.With("component", "accounts")}
}

// Signup creates an account. Email is case-insensitive.
func (s *AccountService) Signup(ctx context.Context, email, password, fullName string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("invalid email %q", email)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	acc := domain.NewAccount(email, hash, strings.TrimSpace(fullName))
	if err := s.repo.CreateAccount(ctx, &acc); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account created", "account_id", acc.ID)
	return &acc, nil
}

// Login checks credentials and returns an access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	acc, err := s.repo.GetAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", nil, domain.NewUnauthorizedError("incorrect email or password")
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(password, acc.PasswordHash) {
		return "", nil, domain.NewUnauthorizedError("incorrect email or password")
	}
	if !acc.IsActive {
		return "", nil, domain.NewForbiddenError("account is inactive")
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, acc, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *AccountService) Authenticate(ctx context.Context, bearer string) (*domain.Account, error) {
	if bearer == "" {
		return nil, domain.NewUnauthorizedError("missing bearer token")
	}
	id, err := s.tokens.Parse(bearer)
	if err != nil {
		return nil, domain.NewUnauthorizedError("could not validate credentials")
	}

	acc, err := s.repo.GetAccount(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.NewUnauthorizedError("could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, domain.NewForbiddenError("account is inactive")
	}
	return acc, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
