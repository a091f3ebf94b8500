package domain

import "fmt"

type Currency string

const (
	CurrencyETH Currency = "ETH"
	CurrencyBTC Currency = "BTC"
	CurrencySTQ Currency = "STQ"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// currencyDecimals is the minor-unit precision used for rounding and storage.
var currencyDecimals = map[Currency]int32{
	CurrencyETH: 18,
	CurrencyBTC: 8,
	CurrencySTQ: 18,
	CurrencyUSD: 2,
	CurrencyEUR: 2,
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency %q: %w", s, ErrCurrencyMismatch)
	}
	return c, nil
}

func (c Currency) Valid() bool {
	_, ok := currencyDecimals[c]
	return ok
}

// Decimals returns the number of minor-unit digits for this currency.
func (c Currency) Decimals() int32 {
	return currencyDecimals[c]
}

func (c Currency) String() string {
	return string(c)
}
