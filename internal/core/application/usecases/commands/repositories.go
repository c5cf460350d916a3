// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, persistence,
// then notification of committed status changes.
package commands

import (
	"context"

	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// HistoryRepoFactory provides access to the status history within a transaction.
	HistoryRepoFactory interface {
		HistoryRepository() ports.HistoryRepository
	}

	// AccountRepoFactory provides access to loyalty balances within a transaction.
	AccountRepoFactory interface {
		AccountRepository() ports.AccountRepository
	}

	// EntryTracker exposes the history entries appended during the transaction.
	EntryTracker interface {
		TrackedEntries() []order.HistoryEntry
	}

	// OrderUoW gives read access to orders, used outside explicit transactions.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// LifecycleUoW persists status changes together with their history records.
	LifecycleUoW interface {
		TxManager
		OrderRepoFactory
		HistoryRepoFactory
		EntryTracker
	}

	// LifecycleUoWFactory creates new lifecycle unit of work instances.
	LifecycleUoWFactory interface {
		Create() LifecycleUoW
	}

	// IntakeUoW additionally reaches loyalty balances so that a redemption and the
	// order it discounts commit together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   discount, err := ledger.Redeem(ctx, uow.AccountRepository(), userID, points, by)
	//   err = uow.OrderRepository().Add(ctx, o)
	//   err = uow.HistoryRepository().Append(ctx, entry)
	//
	//   err = uow.Commit(ctx)
	IntakeUoW interface {
		LifecycleUoW
		AccountRepoFactory
	}

	// IntakeUoWFactory creates new intake unit of work instances.
	IntakeUoWFactory interface {
		Create() IntakeUoW
	}
)
