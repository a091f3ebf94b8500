package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/pkg/config"
)

// Fixed broker topology: downstream consumers bind to these names.
const (
	ExchangeName   = "notifications"
	QueuePushes    = "pushes"
	QueueCallbacks = "callbacks"
)

type ITransactionPublisher interface {
	// Init declares the durable topology. Idempotent; a conflicting existing
	// topology surfaces as an error, which is fatal at startup.
	Init(ctx context.Context) error

	// Push publishes a push notification event. Delivery failure is reported
	// to the caller; no retry is performed here.
	Push(ctx context.Context, event domain.PushNotification) error

	// Callback publishes a webhook callback event. Delivery failure is
	// reported to the caller; no retry is performed here.
	Callback(ctx context.Context, event domain.Callback) error

	Alive() bool
	Close() error
}

type publisher struct {
	conn     *amqp.Connection
	channels chan *amqp.Channel
	cfg      config.BrokerConfig
	logger   zerolog.Logger
}

// New dials the broker and fills the channel pool. Channels are checked out
// for exactly one operation and returned immediately, so publish calls never
// starve each other.
func New(cfg config.BrokerConfig, logger zerolog.Logger) (ITransactionPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %v: %w", err, domain.ErrBrokerUnavailable)
	}

	p := &publisher{
		conn:     conn,
		channels: make(chan *amqp.Channel, cfg.ChannelPoolSize),
		cfg:      cfg,
		logger:   logger.With().Str("component", "transaction_publisher").Logger(),
	}

	for i := 0; i < cfg.ChannelPoolSize; i++ {
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open channel: %v: %w", err, domain.ErrBrokerUnavailable)
		}
		p.channels <- ch
	}

	return p, nil
}

func (p *publisher) Init(ctx context.Context) error {
	ch, err := p.checkout(ctx)
	if err != nil {
		return err
	}
	defer p.checkin(ch)

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %v: %w", ExchangeName, err, domain.ErrBrokerUnavailable)
	}

	for _, queue := range []string{QueuePushes, QueueCallbacks} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %v: %w", queue, err, domain.ErrBrokerUnavailable)
		}
		// Each queue is bound with its own name as routing key.
		if err := ch.QueueBind(queue, queue, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %v: %w", queue, err, domain.ErrBrokerUnavailable)
		}
	}

	p.logger.Info().Str("exchange", ExchangeName).Msg("Broker topology declared")
	return nil
}

func (p *publisher) Push(ctx context.Context, event domain.PushNotification) error {
	return p.publish(ctx, QueuePushes, event)
}

func (p *publisher) Callback(ctx context.Context, event domain.Callback) error {
	return p.publish(ctx, QueueCallbacks, event)
}

func (p *publisher) publish(ctx context.Context, routingKey string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize %s event: %w", routingKey, err)
	}

	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}

	ch, err := p.checkout(ctx)
	if err != nil {
		return err
	}
	defer p.checkin(ch)

	err = ch.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("routing_key", routingKey).Msg("Publish failed")
		return fmt.Errorf("publish to %s: %v: %w", routingKey, err, domain.ErrBrokerUnavailable)
	}

	return nil
}

// checkout takes a channel from the pool, replacing it if the broker closed
// it while pooled.
func (p *publisher) checkout(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch := <-p.channels:
		if ch.IsClosed() {
			fresh, err := p.conn.Channel()
			if err != nil {
				// Keep the pool size stable even when reopening fails.
				p.channels <- ch
				return nil, fmt.Errorf("reopen channel: %v: %w", err, domain.ErrBrokerUnavailable)
			}
			return fresh, nil
		}
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for broker channel: %w", ctx.Err())
	}
}

func (p *publisher) checkin(ch *amqp.Channel) {
	p.channels <- ch
}

func (p *publisher) Alive() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *publisher) Close() error {
	return p.conn.Close()
}
