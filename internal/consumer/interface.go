package consumer

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
)

// UserEventHandler applies a decoded user lifecycle event.
type UserEventHandler interface {
	HandleUserEvent(ctx context.Context, event *domain.UserLifecycleEvent) error
}

// MessageSource is the subset of *kafka.Consumer the ingestor uses.
type MessageSource interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	StoreMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Close() error
}

// SourceFactory creates a fresh, unsubscribed message source.
type SourceFactory func() (MessageSource, error)

// UserEventConsumer manages the Kafka consumer lifecycle.
type UserEventConsumer interface {
	Start(ctx context.Context) error
	State() State
	Done() <-chan struct{}
	Err() error
	Close() error
}
