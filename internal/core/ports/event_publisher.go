package ports

import "context"

// EventPublisher is the notification channel. Implementations are best-effort; the
// core logs a failed publish and never rolls back committed state because of it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
