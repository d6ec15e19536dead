package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/core/ports"
)

type AccountUseCase struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	attempts *slog.Logger
}

func NewAccountUseCase(store ports.CredentialStore, hasher ports.PasswordHasher, attempts *slog.Logger) *AccountUseCase {
	if attempts == nil {
		attempts = slog.New(slog.DiscardHandler)
	}
	return &AccountUseCase{
		store:    store,
		hasher:   hasher,
		attempts: attempts,
	}
}

// Register creates an account. It fails with domain.ErrUsernameTaken when the
// username is already present.
func (uc *AccountUseCase) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register", errors.New("username and password are required"))
	}

	hash, err := uc.hasher.Hash(password)
	if domain.IsInputError(err) {
		uc.attempts.WarnContext(ctx, fmt.Sprintf("Sign-up rejected for %s: %v", username, err))
		return nil, err
	}
	if err != nil {
		uc.attempts.ErrorContext(ctx, fmt.Sprintf("Unexpected error: hash password for %s: %v", username, err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err = uc.store.CreateCredential(ctx, domain.Credential{Username: username, PasswordHash: hash})
	switch {
	case err == nil:
		uc.attempts.InfoContext(ctx, "New user registered: "+username)
		return &domain.Account{Username: username}, nil
	case domain.IsKind(err, domain.ErrUsernameTaken):
		uc.attempts.WarnContext(ctx, "Sign-up rejected, username already exists: "+username)
		return nil, err
	default:
		uc.attempts.ErrorContext(ctx, fmt.Sprintf("Unexpected error: register %s: %v", username, err))
		return nil, fmt.Errorf("create credential: %w", err)
	}
}

// Authenticate succeeds only for a username registered with the same password.
func (uc *AccountUseCase) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		uc.attempts.WarnContext(ctx, "Failed login attempt for "+username)
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("missing credentials"))
	}

	cred, err := uc.store.GetCredential(ctx, username)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			uc.attempts.WarnContext(ctx, "Failed login attempt for "+username)
			return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", err)
		}
		uc.attempts.ErrorContext(ctx, fmt.Sprintf("Unexpected error: login %s: %v", username, err))
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if err := uc.hasher.Compare(cred.PasswordHash, password); err != nil {
		uc.attempts.WarnContext(ctx, "Failed login attempt for "+username)
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", err)
	}

	uc.attempts.InfoContext(ctx, username+" logged in.")
	return &domain.Account{Username: cred.Username}, nil
}

func (uc *AccountUseCase) Logout(ctx context.Context, username string) {
	if username == "" {
		uc.attempts.InfoContext(ctx, "User logged out.")
		return
	}
	uc.attempts.InfoContext(ctx, username+" logged out.")
}
