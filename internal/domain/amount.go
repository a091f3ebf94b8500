package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgcurrency "github.com/baajur/payments-gateway/pkg/currency"
)

// Amount is an exact magnitude of a single currency. Arithmetic across
// currencies is rejected unless an explicit exchange rate is supplied via
// Convert.
type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

func NewAmount(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

func AmountFromString(s string, currency Currency) (Amount, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{Value: v, Currency: currency}, nil
}

func ZeroAmount(currency Currency) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("add %s to %s: %w", b.Currency, a.Currency, ErrCurrencyMismatch)
	}
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}, nil
}

// Sub debits b from a. It is the single place where the non-negative-balance
// invariant is enforced.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("subtract %s from %s: %w", b.Currency, a.Currency, ErrCurrencyMismatch)
	}
	res := a.Value.Sub(b.Value)
	if res.IsNegative() {
		return Amount{}, ErrInsufficientFunds
	}
	return Amount{Value: res, Currency: a.Currency}, nil
}

// Convert scales a by a positive rate into the target currency, rounding
// half-to-even at the target currency's minor unit.
func (a Amount) Convert(rate decimal.Decimal, to Currency) (Amount, error) {
	if !to.Valid() {
		return Amount{}, fmt.Errorf("convert to %q: %w", to, ErrCurrencyMismatch)
	}
	if !rate.IsPositive() {
		return Amount{}, fmt.Errorf("convert with non-positive rate %s: %w", rate, ErrCurrencyMismatch)
	}
	return Amount{
		Value:    pkgcurrency.ConvertWithRate(a.Value, rate, to.Decimals()),
		Currency: to,
	}, nil
}

func (a Amount) IsNegative() bool { return a.Value.IsNegative() }

func (a Amount) IsZero() bool { return a.Value.IsZero() }

func (a Amount) String() string {
	return a.Value.String() + " " + string(a.Currency)
}
