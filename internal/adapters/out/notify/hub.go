// Package notify implements the notification channel: an in-process hub feeding
// live subscribers, RabbitMQ and SQS publishers, and a Broadcaster that fans one
// publish out to all of them without blocking the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// Subscription receives the payloads published to one topic.
type Subscription struct {
	C <-chan []byte

	hub   *Hub
	topic string
	ch    chan []byte
	once  sync.Once
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

// Hub delivers payloads to in-process subscribers. Each subscriber owns a bounded
// queue; a full queue drops the payload for that subscriber only.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.With("component", "NotificationHub"),
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan []byte, h.buffer)
	sub := &Subscription{C: ch, hub: h, topic: topic, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscription]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[sub.topic]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.ch)
}

// Publish never blocks and never fails.
func (h *Hub) Publish(ctx context.Context, topic string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- payload:
		default:
			h.logger.WarnContext(ctx, "subscriber queue full, dropping notification", "topic", topic)
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
