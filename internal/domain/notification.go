package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Callback describes a transaction outcome for webhook consumers. Payloads
// are JSON with camelCase keys, matching what downstream consumers already
// parse.
type Callback struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	UserID        uuid.UUID         `json:"userId"`
	From          uuid.UUID         `json:"from"`
	To            Receipt           `json:"to"`
	ToType        ReceiptType       `json:"toType"`
	ToCurrency    Currency          `json:"toCurrency"`
	ValueCurrency Currency          `json:"valueCurrency"`
	Value         decimal.Decimal   `json:"value"`
	Fee           decimal.Decimal   `json:"fee"`
	Status        TransactionStatus `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
}

// PushNotification describes a transaction outcome for device push consumers.
type PushNotification struct {
	UserID        uuid.UUID         `json:"userId"`
	TransactionID uuid.UUID         `json:"transactionId"`
	Status        TransactionStatus `json:"status"`
	Currency      Currency          `json:"currency"`
	Value         decimal.Decimal   `json:"value"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewCallback builds the callback payload for a transaction's current state.
func NewCallback(t *Transaction, now time.Time) Callback {
	return Callback{
		TransactionID: t.ID,
		UserID:        t.UserID,
		From:          t.From,
		To:            t.To,
		ToType:        t.ToType,
		ToCurrency:    t.ToCurrency,
		ValueCurrency: t.ValueCurrency,
		Value:         t.Value,
		Fee:           t.Fee,
		Status:        t.Status,
		Timestamp:     now,
	}
}

// NewPushNotification builds the push payload for a transaction's current state.
func NewPushNotification(t *Transaction, now time.Time) PushNotification {
	return PushNotification{
		UserID:        t.UserID,
		TransactionID: t.ID,
		Status:        t.Status,
		Currency:      t.ValueCurrency,
		Value:         t.Value,
		Timestamp:     now,
	}
}
