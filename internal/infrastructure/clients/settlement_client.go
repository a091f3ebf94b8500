package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/pkg/config"
)

// ISettlementClient hands transfers to external addresses over to the
// settlement gateway. The gateway confirms or rejects asynchronously through
// the transaction status-update path.
type ISettlementClient interface {
	Submit(ctx context.Context, transactionID, from uuid.UUID, toAddress string, value decimal.Decimal, currency domain.Currency) error
}

type settlementOrder struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	From          uuid.UUID       `json:"from"`
	ToAddress     string          `json:"toAddress"`
	Value         decimal.Decimal `json:"value"`
	Currency      domain.Currency `json:"currency"`
}

type settlementClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewSettlementClient(cfg config.SettlementConfig, logger zerolog.Logger) ISettlementClient {
	return &settlementClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger.With().Str("component", "settlement_client").Logger(),
	}
}

func (c *settlementClient) Submit(ctx context.Context, transactionID, from uuid.UUID, toAddress string, value decimal.Decimal, currency domain.Currency) error {
	order := settlementOrder{
		TransactionID: transactionID,
		From:          from,
		ToAddress:     toAddress,
		Value:         value,
		Currency:      currency,
	}

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement order: %w", err)
	}

	fullURL := c.baseURL + "/v1/settlements"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", fullURL).Msg("Settlement request failed, retrying")
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(respBody))
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("Settlement server error, retrying")
			continue
		}

		// 4xx is not retryable.
		return fmt.Errorf("client error (status %d): %s", resp.StatusCode, string(respBody))
	}

	c.logger.Error().Err(lastErr).Str("transaction_id", transactionID.String()).Int("max_retries", c.maxRetries).Msg("Settlement submission failed after all retries")
	return fmt.Errorf("settlement submission failed after %d retries: %w", c.maxRetries, lastErr)
}
