package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestAmountAdd(t *testing.T) {
	a := NewAmount(dec(t, "1.5"), CurrencyETH)
	b := NewAmount(dec(t, "2.25"), CurrencyETH)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Value.Equal(dec(t, "3.75")) || sum.Currency != CurrencyETH {
		t.Fatalf("sum=%s want 3.75 ETH", sum)
	}
}

func TestAmountAddCurrencyMismatch(t *testing.T) {
	a := NewAmount(dec(t, "1"), CurrencyETH)
	b := NewAmount(dec(t, "1"), CurrencyBTC)

	if _, err := a.Add(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Sub(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch, got %v", err)
	}
}

func TestAmountSubInsufficientFunds(t *testing.T) {
	a := NewAmount(dec(t, "1"), CurrencyETH)
	b := NewAmount(dec(t, "2"), CurrencyETH)

	if _, err := a.Sub(b); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	// Debiting the exact balance is allowed.
	zero, err := a.Sub(a)
	if err != nil {
		t.Fatal(err)
	}
	if !zero.IsZero() {
		t.Fatalf("zero=%s want 0", zero)
	}
}

func TestAmountConvert(t *testing.T) {
	a := NewAmount(dec(t, "2"), CurrencyETH)

	btc, err := a.Convert(dec(t, "0.05"), CurrencyBTC)
	if err != nil {
		t.Fatal(err)
	}
	if !btc.Value.Equal(dec(t, "0.1")) || btc.Currency != CurrencyBTC {
		t.Fatalf("converted=%s want 0.1 BTC", btc)
	}
}

func TestAmountConvertRejectsBadRate(t *testing.T) {
	a := NewAmount(dec(t, "1"), CurrencyETH)

	if _, err := a.Convert(decimal.Zero, CurrencyBTC); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch for zero rate, got %v", err)
	}
	if _, err := a.Convert(dec(t, "-1"), CurrencyBTC); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch for negative rate, got %v", err)
	}
}

// Exact halves round to the even neighbor so conversions are reproducible.
func TestConvertRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		value string // ETH, converted at rate 1 into BTC (8 minor units)
		want  string
	}{
		{"0.123456785", "0.12345678"}, // half, last kept digit even: down
		{"0.123456775", "0.12345678"}, // half, last kept digit odd: up
		{"0.123456789", "0.12345679"},
		{"0.123456781", "0.12345678"},
	}

	for _, tc := range cases {
		a := NewAmount(dec(t, tc.value), CurrencyETH)
		got, err := a.Convert(dec(t, "1"), CurrencyBTC)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Value.Equal(dec(t, tc.want)) {
			t.Errorf("convert(%s) = %s, want %s", tc.value, got.Value, tc.want)
		}
	}
}

// Converting and converting back with the inverse rate lands within one minor
// unit of the original.
func TestConvertRoundTrip(t *testing.T) {
	rate := dec(t, "0.8")
	inverse := dec(t, "1.25")
	minorUnit := dec(t, "0.01")

	for _, v := range []string{"10.00", "10.01", "0.03", "123.45", "999.99"} {
		a := NewAmount(dec(t, v), CurrencyUSD)

		eur, err := a.Convert(rate, CurrencyEUR)
		if err != nil {
			t.Fatal(err)
		}
		back, err := eur.Convert(inverse, CurrencyUSD)
		if err != nil {
			t.Fatal(err)
		}

		diff := back.Value.Sub(a.Value).Abs()
		if diff.GreaterThan(minorUnit) {
			t.Errorf("round trip of %s drifted by %s", v, diff)
		}
	}
}
