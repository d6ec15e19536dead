package ports

import (
	"context"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

// UnitConverter is the inbound contract presentation shells call per attempt.
type UnitConverter interface {
	Convert(ctx context.Context, input domain.ConversionInput) (*domain.ConversionResult, error)
	SelectCategory(ctx context.Context, choice string) (domain.Category, error)
	Categories() []domain.Category
	Units(category domain.Category) ([]domain.Unit, error)
}

// AccountService is the inbound contract for the sign-up/login gate.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
	Logout(ctx context.Context, username string)
}

// ConversionLogReader exposes recent conversion log lines to viewers.
type ConversionLogReader interface {
	Recent(n int) ([]string, error)
}
