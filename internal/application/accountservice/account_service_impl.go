package accountservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/repositories/accountrepo"
)

const maxAccountNameLen = 40

type accountService struct {
	accountRepo accountrepo.IAccountRepository
	executor    database.TxExecutor
	logger      zerolog.Logger
}

func New(accountRepo accountrepo.IAccountRepository, executor database.TxExecutor, logger zerolog.Logger) IAccountService {
	return &accountService{
		accountRepo: accountRepo,
		executor:    executor,
		logger:      logger.With().Str("component", "account_service").Logger(),
	}
}

func (s *accountService) CreateAccount(ctx context.Context, cmd domain.NewAccount) (*domain.Account, error) {
	if !cmd.Currency.Valid() {
		return nil, fmt.Errorf("account %s: unsupported currency %q: %w", cmd.ID, cmd.Currency, domain.ErrCurrencyMismatch)
	}
	if err := validateName(cmd.Name); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accountRepo.Create(ctx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("id", account.ID.String()).
		Str("currency", string(account.Currency)).
		Str("address", account.AccountAddress).
		Msg("Account created")
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account *domain.Account
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accountRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	return account, nil
}

func (s *accountService) UpdateAccountName(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accountRepo.UpdateName(ctx, id, name)
		return err
	})
	return account, err
}

func (s *accountService) ListUserAccounts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := s.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		accounts, err = s.accountRepo.ListByUser(ctx, userID, limit, offset)
		return err
	})
	return accounts, err
}

func (s *accountService) GetBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return domain.Amount{}, err
	}
	return account.Balance, nil
}

func validateName(name string) error {
	if len(name) == 0 || len(name) > maxAccountNameLen {
		return fmt.Errorf("account name must be 1-%d characters", maxAccountNameLen)
	}
	return nil
}
