package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateLock is a rate quote previously locked with the exchange gateway. A
// cross-currency transaction must reference a lock that is still valid and
// matches the currency pair and rate at creation time.
type RateLock struct {
	ID           uuid.UUID       `json:"id"`
	FromCurrency Currency        `json:"fromCurrency"`
	ToCurrency   Currency        `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	ExpiresAt    time.Time       `json:"expiresAt"`
}

// Covers reports whether the lock is usable for the given pair and rate at
// the given instant.
func (l *RateLock) Covers(from, to Currency, rate decimal.Decimal, now time.Time) bool {
	return l.FromCurrency == from &&
		l.ToCurrency == to &&
		l.Rate.Equal(rate) &&
		l.ExpiresAt.After(now)
}
