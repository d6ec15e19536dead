package ports

import (
	"context"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

// CredentialStore persists accounts keyed by unique username.
// CreateCredential fails with domain.ErrUsernameTaken on a duplicate and
// GetCredential with domain.ErrNotFound when the username is absent.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred domain.Credential) error
	GetCredential(ctx context.Context, username string) (*domain.Credential, error)
}

// PasswordHasher turns plaintext passwords into stored hashes and back-checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ConversionEventPublisher fans conversion attempts out to other processes.
type ConversionEventPublisher interface {
	PublishConversion(ctx context.Context, event domain.ConversionEvent) error
}

// ConversionEventSubscriber consumes conversion attempts published elsewhere.
type ConversionEventSubscriber interface {
	SubscribeConversions(ctx context.Context, handler func(context.Context, domain.ConversionEvent) error) error
}
