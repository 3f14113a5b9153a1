// Package broker forwards inbound gateway events to RabbitMQ consumers.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/pkg/logger"
)

const (
	EventInboundWhatsApp = "whatsapp.inbound.v1"

	maxDialDelay = 30 * time.Second
)

type Meta struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope wraps data with a fresh id and timestamp.
func NewEnvelope(eventType string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:         uuid.NewString(),
			EventType:  eventType,
			OccurredAt: time.Now().UTC(),
			Source:     "secretary",
		},
		Data: data,
	}
}

type Publisher struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
}

// NewPublisher dials with retry and declares a durable topic exchange.
func NewPublisher(ctx context.Context, cfg environments.BrokerConfig) (*Publisher, error) {
	conn, err := dialWithRetry(ctx, cfg.URL, cfg.RetryAttempts, time.Second)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Infof("Connected to RabbitMQ (exchange: %s)", cfg.Exchange)

	return &Publisher{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

// Forward publishes an envelope on the configured routing key.
func (p *Publisher) Forward(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    env.Meta.ID,
		Type:         env.Meta.EventType,
		Timestamp:    env.Meta.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", env.Meta.EventType, err)
	}

	logger.Debugf("Published %s (%s) to %s/%s", env.Meta.EventType, env.Meta.ID, p.exchange, p.routingKey)

	return nil
}

// Healthy reports whether the underlying connection is still open.
func (p *Publisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

func dialWithRetry(ctx context.Context, url string, attempts int, delay time.Duration) (*amqp091.Connection, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if i > 1 {
				logger.Infof("RabbitMQ connected on attempt %d", i)
			}
			return conn, nil
		}
		lastErr = err

		if i == attempts {
			break
		}

		sleep := backoff(delay, i)
		logger.Warnf("RabbitMQ dial failed (attempt %d/%d), retrying in %v: %v", i, attempts, sleep, err)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.New("dial cancelled: " + ctx.Err().Error())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// backoff doubles delay per attempt, capped at maxDialDelay.
func backoff(delay time.Duration, attempt int) time.Duration {
	sleep := delay * time.Duration(math.Pow(2, float64(attempt-1)))
	if sleep > maxDialDelay || sleep <= 0 {
		return maxDialDelay
	}
	return sleep
}
