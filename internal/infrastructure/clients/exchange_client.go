package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/pkg/config"
)

// IExchangeClient talks to the exchange gateway that issues rate locks for
// cross-currency transactions.
type IExchangeClient interface {
	GetRateLock(ctx context.Context, exchangeID uuid.UUID) (*domain.RateLock, error)
}

type exchangeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewExchangeClient(cfg config.ExchangeConfig, logger zerolog.Logger) IExchangeClient {
	return &exchangeClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger.With().Str("component", "exchange_client").Logger(),
	}
}

func (c *exchangeClient) GetRateLock(ctx context.Context, exchangeID uuid.UUID) (*domain.RateLock, error) {
	endpoint := fmt.Sprintf("%s/v1/rate_locks/%s", c.baseURL, exchangeID)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", endpoint).Msg("Exchange request failed, retrying")
			continue
		}

		lock, retryable, err := c.parseResponse(resp, exchangeID)
		if err == nil {
			return lock, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Exchange returned retryable error")
	}

	c.logger.Error().Err(lastErr).Str("exchange_id", exchangeID.String()).Int("max_retries", c.maxRetries).Msg("Exchange request failed after all retries")
	return nil, fmt.Errorf("rate lock lookup failed after %d retries: %w", c.maxRetries, lastErr)
}

func (c *exchangeClient) parseResponse(resp *http.Response, exchangeID uuid.UUID) (*domain.RateLock, bool, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response body failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var lock domain.RateLock
		if err := json.Unmarshal(body, &lock); err != nil {
			return nil, false, fmt.Errorf("parsing rate lock failed: %w", err)
		}
		return &lock, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("rate lock %s: %w", exchangeID, domain.ErrNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(body))
	default:
		return nil, false, fmt.Errorf("client error (status %d): %s", resp.StatusCode, string(body))
	}
}
