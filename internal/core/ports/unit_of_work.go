package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/order"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction. It is a no-op after Commit, so
	// callers may always defer it.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository
	HistoryRepository() HistoryRepository
	AccountRepository() AccountRepository

	// TrackedEntries returns the history entries appended in this unit of work. After a
	// successful Commit they are the status changes to notify subscribers about.
	TrackedEntries() []order.HistoryEntry
}

// Tracker is implemented by units of work so repositories can register appended entries.
type Tracker interface {
	Track(entry order.HistoryEntry)
}
