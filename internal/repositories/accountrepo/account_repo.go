package accountrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baajur/payments-gateway/internal/domain"
)

type IAccountRepository interface {
	// Create inserts the account and assigns it a fresh currency-specific
	// address. Returns domain.ErrConflict when the id is already taken.
	Create(ctx context.Context, payload domain.NewAccount) (*domain.Account, error)

	// Get returns the account or nil when absent.
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// UpdateName changes the account's display name, the only mutable
	// metadata field. Returns domain.ErrNotFound when absent.
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Account, error)

	// ApplyDelta adds the signed delta to the account's balance under a row
	// lock. It must run inside the executor's scoped transaction; it is the
	// only balance mutation path and fails with domain.ErrInsufficientFunds
	// before a negative balance is ever written.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, currency domain.Currency) (*domain.Account, error)
}
