package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"drinklog/internal/logger"
)

// RedisBroker relays events between instances over a redis channel. Events
// published on any instance reach the local hub of every instance through
// Run.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// NewRedisBroker connects to the redis server at url (redis://...).
func NewRedisBroker(url, channel string, hub *Hub) (*RedisBroker, error) {
	if hub == nil {
		return nil, ErrHubUnavailable
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("redis channel is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisBroker{
		client:  redis.NewClient(opts),
		channel: channel,
		hub:     hub,
	}, nil
}

var _ Publisher = (*RedisBroker)(nil)

// Ping checks the connection.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Publish sends the event to every instance. When redis is unreachable the
// event still reaches local subscribers and the error is returned.
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.OwnerID) == "" {
		return ErrInvalidOwner
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		_ = b.hub.Publish(ctx, event)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run relays received events into the local hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	logger.Get().Infow("Live event relay started", "channel", b.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(ctx, msg.Payload)
		}
	}
}

func (b *RedisBroker) relay(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Get().Warnw("Dropping malformed live event", "error", err)
		return
	}
	if err := b.hub.Publish(ctx, event); err != nil {
		logger.Get().Warnw("Dropping live event", "owner_id", event.OwnerID, "error", err)
	}
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
