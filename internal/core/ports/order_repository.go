// Package ports defines the contracts between the core and its adapters:
// repositories, the user directory, the notification channel and the unit of work.
package ports

import (
	"context"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Orders are never deleted.
type OrderRepository interface {
	// Add persists a new order aggregate with its items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists a status change. It only writes when the stored version is
	// aggregate.Version()-1 and returns errs.ConflictError otherwise.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns errs.ObjectNotFoundError when the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByUser returns the orders of one customer, newest first.
	ListByUser(ctx context.Context, userID kernel.UUID) ([]*order.Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]*order.Order, error)

	// ListInStatuses returns the orders currently in any of statuses, oldest first.
	ListInStatuses(ctx context.Context, statuses []order.Status) ([]*order.Order, error)

	// ListCreatedBetween returns orders created in [from, to).
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error)

	// ListScheduledBetween returns non-terminal orders whose scheduled time is in [from, to).
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error)
}

// HistoryRepository is the append-only status audit trail.
type HistoryRepository interface {
	Append(ctx context.Context, entry order.HistoryEntry) error

	// ListByOrder returns the entries of one order in chronological order.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.HistoryEntry, error)
}
