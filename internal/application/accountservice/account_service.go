package accountservice

import (
	"context"

	"github.com/google/uuid"

	"github.com/baajur/payments-gateway/internal/domain"
)

type IAccountService interface {
	// CreateAccount opens an account with a zero balance and a fresh
	// currency-specific address. Fails with domain.ErrConflict when the id
	// is already taken.
	CreateAccount(ctx context.Context, cmd domain.NewAccount) (*domain.Account, error)

	// GetAccount fails with domain.ErrNotFound when absent.
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// UpdateAccountName changes the display name, the only metadata callers
	// may touch after creation.
	UpdateAccountName(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error)

	ListUserAccounts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Account, error)

	// GetBalance returns the account's running balance.
	GetBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error)
}
