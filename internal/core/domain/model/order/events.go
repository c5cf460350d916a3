package order

import (
	"encoding/json"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
)

const (
	// GlobalTopic carries every order creation and status change.
	GlobalTopic = "orders"

	// ScheduledTopic carries reminders for scheduled orders entering their preparation window.
	ScheduledTopic = "orders.scheduled"
)

// TopicFor returns the per-order topic.
func TopicFor(orderID kernel.UUID) string {
	return GlobalTopic + "." + orderID.String()
}

// StatusChanged is published after an order is created or changes status.
type StatusChanged struct {
	OrderID   kernel.UUID
	Status    Status
	ChangedBy string
	Timestamp time.Time
}

// StatusChangedFrom builds the event for a committed history entry.
func StatusChangedFrom(entry HistoryEntry) StatusChanged {
	return StatusChanged{
		OrderID:   entry.OrderID(),
		Status:    entry.Status(),
		ChangedBy: entry.ChangedBy(),
		Timestamp: entry.ChangedAt(),
	}
}

// Topics lists where the event is published: the per-order topic and the global one.
func (e StatusChanged) Topics() []string {
	return []string{TopicFor(e.OrderID), GlobalTopic}
}

type statusChangedPayload struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changedBy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON renders the wire payload {orderId, status, timestamp}.
func (e StatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusChangedPayload{
		OrderID:   e.OrderID.String(),
		Status:    e.Status.String(),
		ChangedBy: e.ChangedBy,
		Timestamp: e.Timestamp.UTC(),
	})
}

// ScheduledOrderDue announces that a scheduled order should now be prepared.
type ScheduledOrderDue struct {
	OrderID     kernel.UUID
	ScheduledAt time.Time
}

func (e ScheduledOrderDue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OrderID     string    `json:"orderId"`
		ScheduledAt time.Time `json:"scheduledAt"`
	}{
		OrderID:     e.OrderID.String(),
		ScheduledAt: e.ScheduledAt.UTC(),
	})
}
