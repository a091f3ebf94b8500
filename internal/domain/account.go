package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Account holds a single running balance in one currency. The currency is
// fixed for the account's lifetime and the balance is mutated only inside
// ledger transactions.
type Account struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Currency       Currency  `json:"currency" db:"currency"`
	AccountAddress string    `json:"account_address" db:"account_address"`
	Name           string    `json:"name" db:"name"`
	Balance        Amount    `json:"balance" db:"balance"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// NewAccount is the validated create command. The address is assigned by the
// repository at insert time and the id doubles as the idempotency key.
type NewAccount struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Currency Currency  `json:"currency"`
	Name     string    `json:"name"`
}

// GenerateAddress produces a fresh opaque currency-specific address. Once
// assigned to an account it never changes.
func GenerateAddress(currency Currency) string {
	switch currency {
	case CurrencyETH, CurrencySTQ:
		return "0x" + randomHex(20)
	case CurrencyBTC:
		return "1" + randomHex(16)
	default:
		return string(currency) + ":" + randomHex(16)
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return hex.EncodeToString(buf)
}
