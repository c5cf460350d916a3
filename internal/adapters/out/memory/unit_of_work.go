package memory

import (
	"context"
	"errors"
	"slices"

	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
)

var ErrNoTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork works on a private copy of the store between Begin and Commit.
// Without Begin, each repository call runs on its own against committed state.
type UnitOfWork struct {
	store   *Store
	tx      *data
	tracked []order.HistoryEntry
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	u.tx = u.store.data.clone()
	u.tracked = nil
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	u.store.data = u.tx
	u.tx = nil
	u.store.release()
	return nil
}

// Rollback is a no-op when no transaction is active.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil {
		return nil
	}
	u.tx = nil
	u.tracked = nil
	u.store.release()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) HistoryRepository() ports.HistoryRepository {
	return &HistoryRepository{uow: u}
}

func (u *UnitOfWork) AccountRepository() ports.AccountRepository {
	return &UserRepository{uow: u}
}

func (u *UnitOfWork) Track(entry order.HistoryEntry) {
	u.tracked = append(u.tracked, entry)
}

func (u *UnitOfWork) TrackedEntries() []order.HistoryEntry {
	return slices.Clone(u.tracked)
}

// run executes fn inside the active transaction, or alone against committed state.
func (u *UnitOfWork) run(ctx context.Context, fn func(d *data) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	defer u.store.release()
	return fn(u.store.data)
}
