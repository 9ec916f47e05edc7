package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sethvargo/go-retry"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("consumer already started")

// Config configures the user event ingestor.
type Config struct {
	Brokers         string
	Topic           string
	GroupID         string
	AutoOffsetReset string
	PollTimeout     time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// ConfluentConsumer drains the user-events topic and applies each event in
// delivery order, one message at a time. Offsets are stored only after a
// message has been handled, so a crash redelivers the in-flight message.
type ConfluentConsumer struct {
	cfg       Config
	newSource SourceFactory
	handler   UserEventHandler

	state   atomic.Int32
	started atomic.Bool
	cancel  context.CancelFunc
	doneCh  chan struct{}

	mu  sync.Mutex
	err error
}

// NewConfluentConsumer creates an ingestor backed by confluent-kafka-go.
func NewConfluentConsumer(cfg Config, handler UserEventHandler) *ConfluentConsumer {
	return NewConsumerWithSource(cfg, confluentSource(cfg), handler)
}

// NewConsumerWithSource creates an ingestor that reads from sources built by newSource.
func NewConsumerWithSource(cfg Config, newSource SourceFactory, handler UserEventHandler) *ConfluentConsumer {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 100 * time.Millisecond
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = 1
	}
	if cfg.ConnectBackoff <= 0 {
		cfg.ConnectBackoff = time.Second
	}
	return &ConfluentConsumer{
		cfg:       cfg,
		newSource: newSource,
		handler:   handler,
		doneCh:    make(chan struct{}),
	}
}

func confluentSource(cfg Config) SourceFactory {
	return func() (MessageSource, error) {
		offsetReset := cfg.AutoOffsetReset
		if offsetReset == "" {
			offsetReset = "earliest"
		}
		c, err := kafka.NewConsumer(&kafka.ConfigMap{
			"bootstrap.servers":        cfg.Brokers,
			"group.id":                 cfg.GroupID,
			"auto.offset.reset":        offsetReset,
			"enable.auto.commit":       true,
			"enable.auto.offset.store": false,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		return c, nil
	}
}

// Start connects and subscribes, retrying with backoff, then consumes in the
// background. A connect failure is returned; the caller should treat it as fatal.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if !cc.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	src, err := cc.connect(ctx)
	if err != nil {
		cc.setState(StateStopped)
		close(cc.doneCh)
		cc.setErr(err)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	cc.cancel = cancel

	l := pkglog.L()
	l.Info().Str(pkglog.FieldTopic, cc.cfg.Topic).Str("group_id", cc.cfg.GroupID).Msg("kafka user event consumer started")

	go cc.consumeLoop(loopCtx, src)

	return nil
}

// connect builds and subscribes a source, retrying up to ConnectAttempts times.
func (cc *ConfluentConsumer) connect(ctx context.Context) (MessageSource, error) {
	l := pkglog.L()
	b := retry.NewExponential(cc.cfg.ConnectBackoff)
	b = retry.WithCappedDuration(30*time.Second, b)
	b = retry.WithMaxRetries(uint64(cc.cfg.ConnectAttempts-1), b)

	var src MessageSource
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		cc.setState(StateConnecting)

		s, err := cc.newSource()
		if err != nil {
			l.Warn().Err(err).Int("attempt", attempt).Msg("kafka consumer create failed")
			return retry.RetryableError(err)
		}
		if err := s.Subscribe(cc.cfg.Topic, nil); err != nil {
			s.Close()
			l.Warn().Err(err).Int("attempt", attempt).Str(pkglog.FieldTopic, cc.cfg.Topic).Msg("kafka subscribe failed")
			return retry.RetryableError(fmt.Errorf("failed to subscribe to topic %s: %w", cc.cfg.Topic, err))
		}

		src = s
		cc.setState(StateSubscribed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kafka connect failed after %d attempts: %w", attempt, err)
	}
	return src, nil
}

func (cc *ConfluentConsumer) consumeLoop(ctx context.Context, src MessageSource) {
	l := pkglog.L()
	defer close(cc.doneCh)
	defer func() {
		cc.setState(StateStopping)
		if src != nil {
			if err := src.Close(); err != nil {
				l.Warn().Err(err).Msg("failed to close kafka consumer")
			}
		}
		cc.setState(StateStopped)
	}()

	cc.setState(StateRunning)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("kafka user event consumer shutting down")
			return
		default:
		}

		msg, err := src.ReadMessage(cc.cfg.PollTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					l.Error().Err(err).Msg("fatal kafka consumer error, reconnecting")
					src.Close()
					src = nil
					if src, err = cc.connect(ctx); err != nil {
						if ctx.Err() == nil {
							l.Error().Err(err).Msg("kafka reconnect failed, consumer stopped")
							cc.setErr(err)
						}
						return
					}
					cc.setState(StateRunning)
					continue
				}
			}
			l.Error().Err(err).Msg("kafka user event consumer error")
			continue
		}

		// The in-flight message finishes even if shutdown begins meanwhile.
		cc.processMessage(context.WithoutCancel(ctx), msg)

		if _, err := src.StoreMessage(msg); err != nil {
			l.Warn().Err(err).Int64(pkglog.FieldOffset, int64(msg.TopicPartition.Offset)).Msg("failed to store kafka offset")
		}
	}
}

// processMessage decodes and applies one message. Malformed payloads and
// handler failures are logged and dropped; the broker's redelivery is the only retry.
func (cc *ConfluentConsumer) processMessage(ctx context.Context, msg *kafka.Message) {
	l := pkglog.L().With().
		Str(pkglog.FieldTopic, topicOf(msg)).
		Int32(pkglog.FieldPartition, msg.TopicPartition.Partition).
		Int64(pkglog.FieldOffset, int64(msg.TopicPartition.Offset)).
		Logger()

	var event domain.UserLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.Warn().Err(err).Msg("dropping malformed user event")
		return
	}
	if err := event.Validate(); err != nil {
		l.Warn().Err(err).Msg("dropping malformed user event")
		return
	}

	l = l.With().Str(pkglog.FieldEventType, event.EventType).Str(pkglog.FieldUserID, event.UserID).Logger()
	if ts, err := event.EventTime(); err != nil {
		l.Warn().Err(err).Msg("ignoring unreadable event timestamp")
	} else if !ts.IsZero() {
		l = l.With().Time("event_time", ts).Logger()
	}
	l.Debug().Msg("received user event")

	if err := cc.handler.HandleUserEvent(pkglog.WithLogger(ctx, l), &event); err != nil {
		l.Error().Err(err).Msg("failed to handle user event")
	}
}

// State returns the current lifecycle state.
func (cc *ConfluentConsumer) State() State {
	return State(cc.state.Load())
}

// Done is closed when the consume loop exits.
func (cc *ConfluentConsumer) Done() <-chan struct{} {
	return cc.doneCh
}

// Err returns the error that stopped the consumer, if any.
func (cc *ConfluentConsumer) Err() error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.err
}

// Close stops pulling new messages, lets the in-flight one finish and
// closes the underlying consumer.
func (cc *ConfluentConsumer) Close() error {
	if !cc.started.Load() {
		return nil
	}
	if cc.cancel != nil {
		if cc.State() != StateStopped {
			cc.setState(StateStopping)
		}
		cc.cancel()
	}
	<-cc.doneCh
	return nil
}

func (cc *ConfluentConsumer) setState(s State) {
	cc.state.Store(int32(s))
}

func (cc *ConfluentConsumer) setErr(err error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.err = err
}

func topicOf(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}

// Ensure interface is satisfied at compile time.
var _ UserEventConsumer = (*ConfluentConsumer)(nil)
