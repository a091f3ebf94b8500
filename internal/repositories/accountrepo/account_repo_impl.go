package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
)

type accountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IAccountRepository {
	return &accountRepository{
		db:     db.Db,
		logger: logger.With().Str("component", "account_repo").Logger(),
	}
}

const accountColumns = `id, user_id, currency, account_address, name, balance, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, payload domain.NewAccount) (*domain.Account, error) {
	q := database.QuerierFromContext(ctx, r.db)

	address := domain.GenerateAddress(payload.Currency)
	now := time.Now().UTC()

	row := q.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, currency, account_address, name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6)
		RETURNING `+accountColumns,
		payload.ID, payload.UserID, string(payload.Currency), address, payload.Name, now)

	account, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("account %s: %w", payload.ID, domain.ErrConflict)
		}
		r.logger.Error().Err(err).Str("id", payload.ID.String()).Msg("Failed to create account")
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	q := database.QuerierFromContext(ctx, r.db)

	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("id", id.String()).Msg("Failed to get account")
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func (r *accountRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	q := database.QuerierFromContext(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		UPDATE accounts SET name = $2, updated_at = $3 WHERE id = $1
		RETURNING `+accountColumns,
		id, name, time.Now().UTC())

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error().Err(err).Str("id", id.String()).Msg("Failed to update account name")
		return nil, fmt.Errorf("failed to update account name: %w", err)
	}

	return account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Account, error) {
	q := database.QuerierFromContext(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *accountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, currency domain.Currency) (*domain.Account, error) {
	q := database.QuerierFromContext(ctx, r.db)

	var balanceStr, currencyStr string
	err := q.QueryRowContext(ctx, `SELECT balance, currency FROM accounts WHERE id = $1 FOR UPDATE`, id).
		Scan(&balanceStr, &currencyStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error().Err(err).Str("id", id.String()).Msg("Failed to lock account row")
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	if domain.Currency(currencyStr) != currency {
		return nil, fmt.Errorf("account %s holds %s, not %s: %w", id, currencyStr, currency, domain.ErrCurrencyMismatch)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for account %s: %w", id, err)
	}

	next := balance.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}

	row := q.QueryRowContext(ctx, `
		UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1
		RETURNING `+accountColumns,
		id, next.String(), time.Now().UTC())

	account, err := scanAccount(row)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id.String()).Msg("Failed to apply balance delta")
		return nil, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a          domain.Account
		currency   string
		balanceStr string
	)
	if err := row.Scan(&a.ID, &a.UserID, &currency, &a.AccountAddress, &a.Name, &balanceStr, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	a.Currency = domain.Currency(currency)
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance: %w", err)
	}
	a.Balance = domain.NewAmount(balance, a.Currency)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
