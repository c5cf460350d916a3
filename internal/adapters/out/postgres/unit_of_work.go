// Package postgres provides the GORM-backed unit of work. Repositories obtained
// from a unit of work share its transaction once Begin has been called; before
// that each call runs in its own implicit transaction.
package postgres

import (
	"context"

	"pizzeria/internal/adapters/out/postgres/historyrepo"
	"pizzeria/internal/adapters/out/postgres/orderrepo"
	"pizzeria/internal/adapters/out/postgres/userrepo"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates isolated units of work over one connection pool.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create returns a fresh unit of work. Instances must not be shared between goroutines.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork implements ports.UnitOfWork.
type GormUnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	tracked []order.HistoryEntry
}

// Begin starts a transaction. Calling it again while one is active is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	uow.tx = tx
	uow.tracked = nil
	return nil
}

func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the active transaction and its tracked entries.
// Without an active transaction it does nothing.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return nil
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.tracked = nil
	return err
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn())
}

func (uow *GormUnitOfWork) HistoryRepository() ports.HistoryRepository {
	return historyrepo.NewGormHistoryRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) AccountRepository() ports.AccountRepository {
	return userrepo.NewGormUserRepository(uow.conn())
}

// Track registers an appended history entry.
func (uow *GormUnitOfWork) Track(entry order.HistoryEntry) {
	uow.tracked = append(uow.tracked, entry)
}

func (uow *GormUnitOfWork) TrackedEntries() []order.HistoryEntry {
	entries := make([]order.HistoryEntry, len(uow.tracked))
	copy(entries, uow.tracked)
	return entries
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
