package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusRejected.Terminal() {
		t.Fatal("completed and rejected must be terminal")
	}
}

func TestTransactionHeld(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tx := &Transaction{HoldUntil: &future}
	if !tx.Held(now) {
		t.Fatal("future hold_until must be held")
	}

	tx.HoldUntil = &past
	if tx.Held(now) {
		t.Fatal("elapsed hold_until must not be held")
	}

	tx.HoldUntil = nil
	if tx.Held(now) {
		t.Fatal("nil hold_until must not be held")
	}
}

func TestCreditedAmount(t *testing.T) {
	rate := decimal.RequireFromString("0.05")
	tx := &Transaction{
		ID:            uuid.New(),
		ToCurrency:    CurrencyBTC,
		ValueCurrency: CurrencyETH,
		Value:         decimal.RequireFromString("3"),
		ExchangeRate:  &rate,
	}

	credited, err := tx.CreditedAmount()
	if err != nil {
		t.Fatal(err)
	}
	if !credited.Value.Equal(decimal.RequireFromString("0.15")) || credited.Currency != CurrencyBTC {
		t.Fatalf("credited=%s want 0.15 BTC", credited)
	}

	// Same currency passes the value through untouched.
	tx.ToCurrency = CurrencyETH
	credited, err = tx.CreditedAmount()
	if err != nil {
		t.Fatal(err)
	}
	if !credited.Value.Equal(tx.Value) {
		t.Fatalf("credited=%s want %s", credited.Value, tx.Value)
	}

	// Cross-currency without a rate is an error.
	tx.ToCurrency = CurrencyBTC
	tx.ExchangeRate = nil
	if _, err := tx.CreditedAmount(); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch, got %v", err)
	}
}

func TestCreateTransactionValidate(t *testing.T) {
	rate := decimal.RequireFromString("0.05")
	exchangeID := uuid.New()

	base := CreateTransaction{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		From:          uuid.New(),
		To:            Receipt(uuid.New().String()),
		ToType:        ReceiptTypeAccount,
		ToCurrency:    CurrencyETH,
		ValueCurrency: CurrencyETH,
		Value:         decimal.RequireFromString("1"),
		Fee:           decimal.RequireFromString("0.1"),
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("same-currency command must validate: %v", err)
	}

	cross := base
	cross.ToCurrency = CurrencyBTC
	if err := cross.Validate(); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("cross-currency without exchange must fail, got %v", err)
	}

	cross.ExchangeID = &exchangeID
	cross.ExchangeRate = &rate
	if err := cross.Validate(); err != nil {
		t.Fatalf("cross-currency with exchange must validate: %v", err)
	}

	negRate := decimal.RequireFromString("-0.05")
	cross.ExchangeRate = &negRate
	if err := cross.Validate(); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("negative rate must fail, got %v", err)
	}
}

func TestGenerateAddress(t *testing.T) {
	eth := GenerateAddress(CurrencyETH)
	if len(eth) != 42 || eth[:2] != "0x" {
		t.Fatalf("eth address %q has wrong shape", eth)
	}

	if GenerateAddress(CurrencyETH) == eth {
		t.Fatal("addresses must be unique")
	}
}
