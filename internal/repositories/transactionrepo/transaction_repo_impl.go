package transactionrepo

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
	"github.com/sqlc-dev/pqtype"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
)

type transactionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ITransactionRepository {
	return &transactionRepository{
		db:     db.Db,
		logger: logger.With().Str("component", "transaction_repo").Logger(),
	}
}

const transactionColumns = `id, user_id, from_account, to_value, to_type, to_currency,
	value_currency, value, fee, exchange_id, exchange_rate, status, hold_until,
	balance_applied, metadata, created_at, updated_at`

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	q := database.QuerierFromContext(ctx, r.db)

	var exchangeID uuid.NullUUID
	if tx.ExchangeID != nil {
		exchangeID = uuid.NullUUID{UUID: *tx.ExchangeID, Valid: true}
	}
	var exchangeRate sql.NullString
	if tx.ExchangeRate != nil {
		exchangeRate = sql.NullString{String: tx.ExchangeRate.String(), Valid: true}
	}
	var holdUntil sql.NullTime
	if tx.HoldUntil != nil {
		holdUntil = sql.NullTime{Time: *tx.HoldUntil, Valid: true}
	}
	metadata := pqtype.NullRawMessage{RawMessage: tx.Metadata, Valid: tx.Metadata != nil}

	now := time.Now().UTC()

	row := q.QueryRowContext(ctx, `
		INSERT INTO transactions (id, user_id, from_account, to_value, to_type, to_currency,
			value_currency, value, fee, exchange_id, exchange_rate, status, hold_until,
			balance_applied, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		RETURNING `+transactionColumns,
		tx.ID, tx.UserID, tx.From, string(tx.To), string(tx.ToType), string(tx.ToCurrency),
		string(tx.ValueCurrency), tx.Value.String(), tx.Fee.String(), exchangeID, exchangeRate,
		string(tx.Status), holdUntil, tx.BalanceApplied, metadata, now)

	created, err := scanTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrConflict)
		}
		r.logger.Error().Err(err).Str("id", tx.ID.String()).Msg("Failed to create transaction")
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return created, nil
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	q := database.QuerierFromContext(ctx, r.db)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if _, inTx := q.(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}

	tx, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("id", id.String()).Msg("Failed to get transaction")
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, balanceApplied bool) (*domain.Transaction, error) {
	q := database.QuerierFromContext(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		UPDATE transactions SET status = $2, balance_applied = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, string(status), balanceApplied, time.Now().UTC())

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error().Err(err).Str("id", id.String()).Str("status", string(status)).Msg("Failed to update transaction status")
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return tx, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	q := database.QuerierFromContext(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list transactions")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepository) ListDueHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	q := database.QuerierFromContext(ctx, r.db)

	// SKIP LOCKED lets concurrent sweepers share the backlog without blocking
	// on each other's rows.
	rows, err := q.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE status = $1 AND balance_applied = FALSE AND hold_until IS NOT NULL AND hold_until <= $2
		ORDER BY hold_until
		LIMIT $3
		FOR UPDATE SKIP LOCKED`,
		string(domain.StatusPending), now, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list due holds")
		return nil, fmt.Errorf("failed to list due holds: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		to           string
		toType       string
		toCurrency   string
		valueCur     string
		valueStr     string
		feeStr       string
		exchangeID   uuid.NullUUID
		exchangeRate sql.NullString
		status       string
		holdUntil    sql.NullTime
		metadata     pqtype.NullRawMessage
	)

	err := row.Scan(&t.ID, &t.UserID, &t.From, &to, &toType, &toCurrency, &valueCur,
		&valueStr, &feeStr, &exchangeID, &exchangeRate, &status, &holdUntil,
		&t.BalanceApplied, &metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.To = domain.Receipt(to)
	t.ToType = domain.ReceiptType(toType)
	t.ToCurrency = domain.Currency(toCurrency)
	t.ValueCurrency = domain.Currency(valueCur)
	t.Status = domain.TransactionStatus(status)

	if t.Value, err = decimal.NewFromString(valueStr); err != nil {
		return nil, fmt.Errorf("corrupt value: %w", err)
	}
	if t.Fee, err = decimal.NewFromString(feeStr); err != nil {
		return nil, fmt.Errorf("corrupt fee: %w", err)
	}
	if exchangeID.Valid {
		id := exchangeID.UUID
		t.ExchangeID = &id
	}
	if exchangeRate.Valid {
		rate, err := decimal.NewFromString(exchangeRate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt exchange rate: %w", err)
		}
		t.ExchangeRate = &rate
	}
	if holdUntil.Valid {
		hu := holdUntil.Time
		t.HoldUntil = &hu
	}
	if metadata.Valid {
		t.Metadata = metadata.RawMessage
	}

	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
