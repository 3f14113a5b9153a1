package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/pkg/logger"
)

// Client backs the inbound webhook guard: duplicate message ids and echoes of our own sends.
type Client struct {
	client valkey.Client
}

const (
	inboundKeyPrefix  = "inbound_seen:"
	outboundKeyPrefix = "last_outbound:"
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// MarkInboundSeen records an inbound message id. It returns false when the id
// was already recorded within ttl.
func (c *Client) MarkInboundSeen(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := inboundKeyPrefix + messageID

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value("1").Nx().Ex(ttl).Build()).Error()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record inbound message: %w", err)
	}

	return true, nil
}

// RememberOutbound stores the last text sent to phone so the gateway echo can be recognized.
func (c *Client) RememberOutbound(ctx context.Context, phone, text string, ttl time.Duration) error {
	key := outboundKeyPrefix + phone

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(normalizeText(text)).Ex(ttl).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to remember outbound message: %w", err)
	}

	logger.Debugf("Remembered outbound text for %s", phone)

	return nil
}

// IsOutboundEcho reports whether text matches the last outbound text for phone.
func (c *Client) IsOutboundEcho(ctx context.Context, phone, text string) (bool, error) {
	key := outboundKeyPrefix + phone

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read last outbound message: %w", result.Error())
	}

	stored, err := result.ToString()
	if err != nil {
		return false, fmt.Errorf("failed to read last outbound message: %w", err)
	}

	return stored == normalizeText(text), nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
