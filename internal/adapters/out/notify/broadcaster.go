package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pizzeria/internal/core/ports"
)

const (
	// DefaultPublishTimeout bounds one delivery attempt on one channel.
	DefaultPublishTimeout = 5 * time.Second

	// DefaultQueueSize is the number of pending deliveries a channel may hold.
	DefaultQueueSize = 1024
)

// Channel is a named notification sink.
type Channel struct {
	Name      string
	Publisher ports.EventPublisher
}

type delivery struct {
	ctx     context.Context
	topic   string
	payload []byte
}

// outlet is one channel with its FIFO queue, drained by a single goroutine so
// deliveries on a channel keep publish order.
type outlet struct {
	Channel
	queue chan delivery
}

// Broadcaster delivers each publish to every channel. Channels are independent: a
// slow or failing one delays only its own queue. Publish returns immediately;
// failures and overflows are logged, never returned.
type Broadcaster struct {
	outlets []*outlet
	timeout time.Duration
	logger  *slog.Logger
	pending sync.WaitGroup
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewBroadcaster(timeout time.Duration, logger *slog.Logger, channels ...Channel) *Broadcaster {
	return NewBroadcasterWithQueue(timeout, DefaultQueueSize, logger, channels...)
}

// NewBroadcasterWithQueue is NewBroadcaster with an explicit per-channel queue size.
func NewBroadcasterWithQueue(timeout time.Duration, queueSize int, logger *slog.Logger, channels ...Channel) *Broadcaster {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	b := &Broadcaster{
		timeout: timeout,
		logger:  logger.With("component", "NotificationBroadcaster"),
	}
	for _, ch := range channels {
		o := &outlet{Channel: ch, queue: make(chan delivery, queueSize)}
		b.outlets = append(b.outlets, o)
		b.workers.Add(1)
		go b.drain(o)
	}
	return b
}

func (b *Broadcaster) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.WarnContext(ctx, "notification dropped after close", "topic", topic)
		return nil
	}

	// Delivery outlives the request that triggered it.
	d := delivery{ctx: context.WithoutCancel(ctx), topic: topic, payload: payload}
	for _, o := range b.outlets {
		b.pending.Add(1)
		select {
		case o.queue <- d:
		default:
			b.pending.Done()
			b.logger.ErrorContext(ctx, "notification queue full, dropping",
				"channel", o.Name, "topic", topic)
		}
	}
	return nil
}

func (b *Broadcaster) drain(o *outlet) {
	defer b.workers.Done()
	for d := range o.queue {
		b.deliver(o, d)
		b.pending.Done()
	}
}

func (b *Broadcaster) deliver(o *outlet, d delivery) {
	ctx, cancel := context.WithTimeout(d.ctx, b.timeout)
	defer cancel()
	if err := o.Publisher.Publish(ctx, d.topic, d.payload); err != nil {
		b.logger.ErrorContext(ctx, "notification publish failed",
			"channel", o.Name, "topic", d.topic, "error", err)
	}
}

// Wait blocks until every queued delivery has finished.
func (b *Broadcaster) Wait() {
	b.pending.Wait()
}

// Close stops accepting publishes, drains the queues and stops the workers.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, o := range b.outlets {
		close(o.queue)
	}
	b.mu.Unlock()
	b.workers.Wait()
}
