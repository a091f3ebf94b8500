package ledgerservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/internal/infrastructure/clients"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/infrastructure/rabbit"
	"github.com/baajur/payments-gateway/internal/repositories/accountrepo"
	"github.com/baajur/payments-gateway/internal/repositories/transactionrepo"
	"github.com/baajur/payments-gateway/pkg/config"
)

type ledgerService struct {
	accountRepo      accountrepo.IAccountRepository
	transactionRepo  transactionrepo.ITransactionRepository
	executor         database.TxExecutor
	publisher        rabbit.ITransactionPublisher
	exchangeClient   clients.IExchangeClient
	settlementClient clients.ISettlementClient
	cfg              config.LedgerConfig
	logger           zerolog.Logger
	now              func() time.Time
}

func New(
	accountRepo accountrepo.IAccountRepository,
	transactionRepo transactionrepo.ITransactionRepository,
	executor database.TxExecutor,
	publisher rabbit.ITransactionPublisher,
	exchangeClient clients.IExchangeClient,
	settlementClient clients.ISettlementClient,
	cfg config.LedgerConfig,
	logger zerolog.Logger,
) ILedgerService {
	return &ledgerService{
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		executor:         executor,
		publisher:        publisher,
		exchangeClient:   exchangeClient,
		settlementClient: settlementClient,
		cfg:              cfg,
		logger:           logger.With().Str("component", "ledger_service").Logger(),
		now:              time.Now,
	}
}

func (s *ledgerService) CreateTransaction(ctx context.Context, cmd domain.CreateTransaction) (*domain.Transaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := s.now()

	if cmd.ToCurrency != cmd.ValueCurrency {
		lock, err := s.exchangeClient.GetRateLock(ctx, *cmd.ExchangeID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rate lock: %w", err)
		}
		if !lock.Covers(cmd.ValueCurrency, cmd.ToCurrency, *cmd.ExchangeRate, now) {
			return nil, fmt.Errorf("rate lock %s does not cover %s->%s at %s: %w",
				lock.ID, cmd.ValueCurrency, cmd.ToCurrency, cmd.ExchangeRate, domain.ErrCurrencyMismatch)
		}
	}

	var (
		result *domain.Transaction
		replay bool
	)
	err := s.executor.InTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.transactionRepo.Get(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Idempotent replay: return the existing record, no new effects.
			result, replay = existing, true
			return nil
		}

		tx := &domain.Transaction{
			ID:            cmd.ID,
			UserID:        cmd.UserID,
			From:          cmd.From,
			To:            cmd.To,
			ToType:        cmd.ToType,
			ToCurrency:    cmd.ToCurrency,
			ValueCurrency: cmd.ValueCurrency,
			Value:         cmd.Value,
			Fee:           cmd.Fee,
			ExchangeID:    cmd.ExchangeID,
			ExchangeRate:  cmd.ExchangeRate,
			HoldUntil:     cmd.HoldUntil,
			Status:        domain.StatusPending,
		}

		if cmd.HoldUntil != nil && cmd.HoldUntil.After(now) {
			// Held: persist with no balance effect. A sweep releases it once due.
			tx.BalanceApplied = false
		} else {
			if err := s.applyEffects(ctx, tx); err != nil {
				return err
			}
			tx.BalanceApplied = true
			if tx.ToType == domain.ReceiptTypeAccount {
				tx.Status = domain.StatusCompleted
			}
			// External receipts stay pending until the settlement gateway confirms.
		}

		result, err = s.transactionRepo.Create(ctx, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race against a concurrent duplicate submission; the
			// winner's row is the canonical result.
			return s.GetTransaction(ctx, cmd.ID)
		}
		return nil, err
	}
	if replay {
		return result, nil
	}

	if result.ToType == domain.ReceiptTypeAddress && result.BalanceApplied {
		if err := s.settlementClient.Submit(ctx, result.ID, result.From, string(result.To), result.Value, result.ValueCurrency); err != nil {
			// The debit is committed; the transaction stays pending until the
			// settlement is resubmitted or resolved by operations.
			s.logger.Error().Err(err).Str("transaction_id", result.ID.String()).Msg("External settlement submission failed")
		}
	}

	s.notify(ctx, result)
	return result, nil
}

func (s *ledgerService) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("target status %q: %w", status, domain.ErrInvalidTransition)
	}

	var (
		result *domain.Transaction
		noop   bool
	)
	err := s.executor.InTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.transactionRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}

		if tx.Status.Terminal() {
			if tx.Status == status {
				result, noop = tx, true
				return nil
			}
			return fmt.Errorf("transaction %s is already %s: %w", id, tx.Status, domain.ErrInvalidTransition)
		}

		balanceApplied := tx.BalanceApplied
		if status == domain.StatusCompleted && !tx.BalanceApplied {
			// Held transaction coming due: effects apply now, in the same
			// atomic unit as the status write.
			if err := s.applyEffects(ctx, tx); err != nil {
				return err
			}
			balanceApplied = true
		}
		// Rejection never applies balance changes; for externally-settled
		// transactions the debit from creation time stands.

		result, err = s.transactionRepo.UpdateStatus(ctx, id, status, balanceApplied)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !noop {
		s.notify(ctx, result)
	}
	return result, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx *domain.Transaction
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.transactionRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (s *ledgerService) ListUserTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		transactions, err = s.transactionRepo.ListByUser(ctx, userID, limit, offset)
		return err
	})
	return transactions, err
}

func (s *ledgerService) ReleaseDueHolds(ctx context.Context, limit int) (int, error) {
	var due []*domain.Transaction
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		due, err = s.transactionRepo.ListDueHolds(ctx, s.now(), limit)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load due holds: %w", err)
	}

	released := 0
	for _, tx := range due {
		if _, err := s.UpdateTransactionStatus(ctx, tx.ID, domain.StatusCompleted); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				// The balance moved while the hold was pending; the transfer
				// can no longer be honored.
				s.logger.Warn().Str("transaction_id", tx.ID.String()).Msg("Rejecting due hold, insufficient funds at release time")
				if _, rejErr := s.UpdateTransactionStatus(ctx, tx.ID, domain.StatusRejected); rejErr != nil {
					s.logger.Error().Err(rejErr).Str("transaction_id", tx.ID.String()).Msg("Failed to reject due hold")
				}
				continue
			}
			s.logger.Error().Err(err).Str("transaction_id", tx.ID.String()).Msg("Failed to release due hold")
			continue
		}
		released++
	}

	return released, nil
}

func (s *ledgerService) StartHoldSweeper(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.cfg.SweepInterval).Msg("Starting hold sweeper")

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Hold sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			released, err := s.ReleaseDueHolds(ctx, s.cfg.SweepBatchSize)
			if err != nil {
				s.logger.Error().Err(err).Msg("Hold sweep failed")
				continue
			}
			if released > 0 {
				s.logger.Info().Int("released", released).Msg("Released due holds")
			}
		}
	}
}

// applyEffects debits value+fee from the source account and, for internal
// receipts, credits the converted value to the destination — all against rows
// locked within the caller's scoped transaction. Accounts are locked in
// ascending id order so concurrent transfers between the same pair cannot
// deadlock.
func (s *ledgerService) applyEffects(ctx context.Context, tx *domain.Transaction) error {
	total, err := tx.ValueAmount().Add(tx.FeeAmount())
	if err != nil {
		return err
	}

	type delta struct {
		account  uuid.UUID
		change   decimal.Decimal
		currency domain.Currency
	}

	deltas := []delta{{tx.From, total.Value.Neg(), tx.ValueCurrency}}

	if tx.ToType == domain.ReceiptTypeAccount {
		toID, err := tx.To.AccountID()
		if err != nil {
			return err
		}
		credited, err := tx.CreditedAmount()
		if err != nil {
			return err
		}
		deltas = append(deltas, delta{toID, credited.Value, credited.Currency})
		if bytes.Compare(deltas[0].account[:], deltas[1].account[:]) > 0 {
			deltas[0], deltas[1] = deltas[1], deltas[0]
		}
	}

	for _, d := range deltas {
		if _, err := s.accountRepo.ApplyDelta(ctx, d.account, d.change, d.currency); err != nil {
			return err
		}
	}
	return nil
}

// notify publishes the transaction outcome after the commit. Failures are
// logged and never unwind the ledger change; the publish context is detached
// so an aborted request cannot cancel an in-flight attempt.
func (s *ledgerService) notify(ctx context.Context, tx *domain.Transaction) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()

	callback := domain.NewCallback(tx, now)
	if err := s.publishWithRetry(ctx, func(ctx context.Context) error {
		return s.publisher.Callback(ctx, callback)
	}); err != nil {
		s.logger.Error().Err(err).
			Str("transaction_id", tx.ID.String()).
			Str("queue", rabbit.QueueCallbacks).
			Msg("Notification abandoned")
	}

	if !tx.Status.Terminal() {
		return
	}

	push := domain.NewPushNotification(tx, now)
	if err := s.publishWithRetry(ctx, func(ctx context.Context) error {
		return s.publisher.Push(ctx, push)
	}); err != nil {
		s.logger.Error().Err(err).
			Str("transaction_id", tx.ID.String()).
			Str("queue", rabbit.QueuePushes).
			Msg("Notification abandoned")
	}
}

func (s *ledgerService) publishWithRetry(ctx context.Context, publish func(ctx context.Context) error) error {
	attempts := s.cfg.NotifyAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && s.cfg.NotifyBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.NotifyBackoff):
			}
		}
		if lastErr = publish(ctx); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", attempts, lastErr)
}
