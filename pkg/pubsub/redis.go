package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher with Redis PUBLISH. The message key is
// not transmitted; it is already part of the payload.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher on an existing client. Close does not
// close the client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish publishes the message value on the channel named by msg.Topic.
func (r *RedisPublisher) Publish(ctx context.Context, msg *Message) error {
	if err := r.client.Publish(ctx, msg.Topic, msg.Value).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (r *RedisPublisher) Close() error {
	return nil
}

// Ensure interface is satisfied at compile time.
var _ Publisher = (*RedisPublisher)(nil)
