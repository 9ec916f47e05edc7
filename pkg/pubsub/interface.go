package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Message is a single outbound record. Topic is the Kafka topic or Redis channel.
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// NewJSONMessage marshals v into a message.
func NewJSONMessage(topic, key string, v interface{}) (*Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Message{Topic: topic, Key: key, Value: data}, nil
}

// Publisher publishes messages to the event bus.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}
