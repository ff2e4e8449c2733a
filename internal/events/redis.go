package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis Pub/Sub channel carrying report events.
const Channel = "reports:events"

// Redis shares events between server replicas through Redis Pub/Sub. One
// upstream subscription feeds a local Hub, so every replica's SSE clients
// see changes made on any replica.
type Redis struct {
	client *redis.Client
	hub    *Hub
	logger *zap.SugaredLogger
}

// NewRedis connects to url and starts relaying the channel into a local hub
// until ctx is cancelled.
func NewRedis(ctx context.Context, url string, logger *zap.SugaredLogger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	r := &Redis{client: client, hub: NewHub(), logger: logger}
	pubsub := client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	go r.relay(ctx, pubsub)
	return r, nil
}

func (r *Redis) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()
	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.hub.Close()
			return
		case msg, ok := <-msgs:
			if !ok {
				r.hub.Close()
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				r.logger.Warnw("Dropping malformed event", "payload", msg.Payload, "error", err)
				continue
			}
			r.hub.broadcast(e)
		}
	}
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, func()) {
	return r.hub.Subscribe(ctx)
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close drops local subscribers and closes the client.
func (r *Redis) Close() error {
	r.hub.Close()
	return r.client.Close()
}
