// Package publisher delivers post lifecycle events off the request path.
package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
	"github.com/weiawesome/wes-io-live/post-service/pkg/pubsub"
)

const (
	defaultBufferSize = 1024
	publishTimeout    = 5 * time.Second
)

// PostEventPublisher publishes post events without blocking the caller.
type PostEventPublisher interface {
	// PublishAsync queues the event and returns immediately. It reports
	// whether the event was queued.
	PublishAsync(event *domain.PostEvent) bool
	Close() error
}

// AsyncPublisher queues events in a bounded buffer drained by a single worker.
// A full buffer drops the event. Publish errors are logged only.
type AsyncPublisher struct {
	pub   pubsub.Publisher
	topic string
	queue chan *domain.PostEvent

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncPublisher starts the worker. Close must be called to flush the buffer.
func NewAsyncPublisher(pub pubsub.Publisher, topic string, bufferSize int) *AsyncPublisher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	p := &AsyncPublisher{
		pub:   pub,
		topic: topic,
		queue: make(chan *domain.PostEvent, bufferSize),
	}

	p.wg.Add(1)
	go p.run()
	return p
}

func (p *AsyncPublisher) PublishAsync(event *domain.PostEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	l := pkglog.L()
	if p.closed {
		l.Warn().Str(pkglog.FieldEventType, event.EventType).Msg("publisher closed, dropping event")
		return false
	}

	select {
	case p.queue <- event:
		return true
	default:
		l.Warn().
			Str(pkglog.FieldEventType, event.EventType).
			Str(pkglog.FieldPostID, postID(event)).
			Msg("publish buffer full, dropping event")
		return false
	}
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		p.publish(event)
	}
}

func (p *AsyncPublisher) publish(event *domain.PostEvent) {
	l := pkglog.L().With().
		Str(pkglog.FieldEventType, event.EventType).
		Str(pkglog.FieldPostID, postID(event)).
		Str(pkglog.FieldTopic, p.topic).
		Logger()

	msg, err := pubsub.NewJSONMessage(p.topic, postID(event), event)
	if err != nil {
		l.Error().Err(err).Msg("failed to marshal post event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.pub.Publish(ctx, msg); err != nil {
		l.Error().Err(err).Msg("failed to publish post event")
		return
	}
	l.Debug().Msg("post event published")
}

// Close stops accepting events, drains the buffer and closes the underlying publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.pub.Close()
}

func postID(event *domain.PostEvent) string {
	if event.Post == nil {
		return ""
	}
	return event.Post.PostID
}

// Ensure interface is satisfied at compile time.
var _ PostEventPublisher = (*AsyncPublisher)(nil)
