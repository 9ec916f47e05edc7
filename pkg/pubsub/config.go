package pubsub

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string   `mapstructure:"brokers"`
	Partitions int      `mapstructure:"partitions"`
	Topics     []string `mapstructure:"topics"` // created on startup if missing
}

// Config holds the configuration for the publisher.
type Config struct {
	Driver string      `mapstructure:"driver"` // "kafka", "redis", "noop"
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// NewPublisher creates a Publisher based on the configuration. The redis
// driver publishes through client, which the caller owns.
func NewPublisher(cfg Config, client *redis.Client) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis publisher requires a redis client")
		}
		return NewRedisPublisher(client), nil
	case "noop", "":
		return NewNoopPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported publisher driver: %s", cfg.Driver)
	}
}
