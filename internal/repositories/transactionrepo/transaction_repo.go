package transactionrepo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baajur/payments-gateway/internal/domain"
)

type ITransactionRepository interface {
	// Create inserts the transaction row. Returns domain.ErrConflict when the
	// id already exists; the primary key makes idempotent creation safe under
	// concurrent duplicate submissions.
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)

	// Get returns the transaction or nil when absent. Inside a scoped
	// transaction the row is locked for update.
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// UpdateStatus moves the row to the given status and records whether the
	// balance effects have been applied. Returns domain.ErrNotFound when absent.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, balanceApplied bool) (*domain.Transaction, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)

	// ListDueHolds returns pending held transactions whose hold has elapsed
	// and whose balance effects have not yet been applied.
	ListDueHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error)
}
