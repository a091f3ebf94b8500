package ledgerservice

import (
	"context"

	"github.com/google/uuid"

	"github.com/baajur/payments-gateway/internal/domain"
)

type ILedgerService interface {
	// CreateTransaction runs the transfer state machine: idempotent by
	// transaction id, held transactions are persisted without balance effect,
	// everything else debits and credits atomically. After the commit a
	// callback (and a push for terminal outcomes) is published best-effort.
	CreateTransaction(ctx context.Context, cmd domain.CreateTransaction) (*domain.Transaction, error)

	// UpdateTransactionStatus moves a pending transaction to a terminal
	// status. Re-applying the same terminal status is a no-op; a different
	// one fails with domain.ErrInvalidTransition.
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListUserTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)

	// ReleaseDueHolds completes held transactions whose hold has elapsed and
	// returns how many were released.
	ReleaseDueHolds(ctx context.Context, limit int) (int, error)

	// StartHoldSweeper polls for due holds until ctx is cancelled.
	StartHoldSweeper(ctx context.Context) error
}
