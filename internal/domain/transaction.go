package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses are never left once entered.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

type ReceiptType string

const (
	// ReceiptTypeAccount means the destination is an internal account id and
	// the credit is applied in the same atomic unit as the debit.
	ReceiptTypeAccount ReceiptType = "account"
	// ReceiptTypeAddress means the destination is an external address settled
	// by an external collaborator after the debit commits.
	ReceiptTypeAddress ReceiptType = "address"
)

// Receipt is the transaction destination: an internal AccountId or an
// external address string, discriminated by ReceiptType.
type Receipt string

func (r Receipt) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(string(r))
	if err != nil {
		return uuid.Nil, fmt.Errorf("receipt %q is not an account id: %w", r, err)
	}
	return id, nil
}

// Transaction is a ledger transfer or exchange. The id is the idempotency
// key: creating the same id twice returns the existing record unchanged.
// BalanceApplied distinguishes effects applied at creation time from effects
// still pending an external confirmation or a hold release.
type Transaction struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	UserID         uuid.UUID         `json:"user_id" db:"user_id"`
	From           uuid.UUID         `json:"from" db:"from_account"`
	To             Receipt           `json:"to" db:"to_value"`
	ToType         ReceiptType       `json:"to_type" db:"to_type"`
	ToCurrency     Currency          `json:"to_currency" db:"to_currency"`
	ValueCurrency  Currency          `json:"value_currency" db:"value_currency"`
	Value          decimal.Decimal   `json:"value" db:"value"`
	Fee            decimal.Decimal   `json:"fee" db:"fee"`
	ExchangeID     *uuid.UUID        `json:"exchange_id" db:"exchange_id"`
	ExchangeRate   *decimal.Decimal  `json:"exchange_rate" db:"exchange_rate"`
	Status         TransactionStatus `json:"status" db:"status"`
	HoldUntil      *time.Time        `json:"hold_until" db:"hold_until"`
	BalanceApplied bool              `json:"balance_applied" db:"balance_applied"`
	Metadata       json.RawMessage   `json:"metadata" db:"metadata"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// Held reports whether the transaction is still waiting for its hold to
// elapse and therefore has had no balance effect.
func (t *Transaction) Held(now time.Time) bool {
	return t.HoldUntil != nil && t.HoldUntil.After(now) && !t.BalanceApplied
}

// ValueAmount returns value denominated in the value currency.
func (t *Transaction) ValueAmount() Amount {
	return Amount{Value: t.Value, Currency: t.ValueCurrency}
}

// FeeAmount returns the fee denominated in the value currency.
func (t *Transaction) FeeAmount() Amount {
	return Amount{Value: t.Fee, Currency: t.ValueCurrency}
}

// CreditedAmount is what the destination receives: the value converted via
// the exchange rate when the currencies differ, the value itself otherwise.
func (t *Transaction) CreditedAmount() (Amount, error) {
	if t.ToCurrency == t.ValueCurrency {
		return t.ValueAmount(), nil
	}
	if t.ExchangeRate == nil {
		return Amount{}, fmt.Errorf("transaction %s has no exchange rate: %w", t.ID, ErrCurrencyMismatch)
	}
	return t.ValueAmount().Convert(*t.ExchangeRate, t.ToCurrency)
}

// CreateTransaction is the validated create command handed in by the adapter
// layer.
type CreateTransaction struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	From          uuid.UUID        `json:"from"`
	To            Receipt          `json:"to"`
	ToType        ReceiptType      `json:"to_type"`
	ToCurrency    Currency         `json:"to_currency"`
	ValueCurrency Currency         `json:"value_currency"`
	Value         decimal.Decimal  `json:"value"`
	Fee           decimal.Decimal  `json:"fee"`
	ExchangeID    *uuid.UUID       `json:"exchange_id"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate"`
	HoldUntil     *time.Time       `json:"hold_until"`
}

// Validate checks the command's internal consistency. Cross-currency
// transfers must carry both the exchange id and a positive rate.
func (c *CreateTransaction) Validate() error {
	if !c.ToCurrency.Valid() || !c.ValueCurrency.Valid() {
		return fmt.Errorf("transaction %s: %w", c.ID, ErrCurrencyMismatch)
	}
	if c.Value.IsNegative() || c.Fee.IsNegative() {
		return fmt.Errorf("transaction %s has negative value or fee: %w", c.ID, ErrCurrencyMismatch)
	}
	if c.ToCurrency != c.ValueCurrency {
		if c.ExchangeID == nil || c.ExchangeRate == nil {
			return fmt.Errorf("transaction %s: cross-currency transfer without exchange: %w", c.ID, ErrCurrencyMismatch)
		}
		if !c.ExchangeRate.IsPositive() {
			return fmt.Errorf("transaction %s: non-positive exchange rate: %w", c.ID, ErrCurrencyMismatch)
		}
	}
	return nil
}
