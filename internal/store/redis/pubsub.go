// Package redis carries board topics over Redis pub/sub so that every server
// process sees every published change event.
package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	boardChannelPrefix = "laneboard:board:"
	deliveryBuffer     = 64
)

// BoardChannel returns the Redis channel of a board's topic.
func BoardChannel(boardID uuid.UUID) string {
	return boardChannelPrefix + boardID.String()
}

// PubSub publishes and subscribes board topics.
type PubSub struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client. Close closes the client.
func NewWithClient(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable; used by the health check.
func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

// PublishBoard sends payload to the topic of boardID. It returns the number
// of Redis subscribers, one per server process viewing the board.
func (ps *PubSub) PublishBoard(ctx context.Context, boardID uuid.UUID, payload []byte) (int64, error) {
	n, err := ps.client.Publish(ctx, BoardChannel(boardID), payload).Result()
	if err != nil {
		return 0, fmt.Errorf("redis.PubSub.PublishBoard: %w", err)
	}
	return n, nil
}

// SubscribeBoard returns the payloads published to boardID's topic after the
// subscription is confirmed. The channel is closed when ctx is done or Redis
// drops the subscription; cleanup releases it.
func (ps *PubSub) SubscribeBoard(ctx context.Context, boardID uuid.UUID) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, BoardChannel(boardID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.SubscribeBoard: receive confirmation: %w", err)
	}

	out := make(chan []byte, deliveryBuffer)
	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}
