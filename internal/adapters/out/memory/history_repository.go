package memory

import (
	"context"
	"slices"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"
)

type HistoryRepository struct {
	uow *UnitOfWork
}

func (r *HistoryRepository) Append(ctx context.Context, entry order.HistoryEntry) error {
	err := r.uow.run(ctx, func(d *data) error {
		key := entry.OrderID().String()
		if _, ok := d.orders[key]; !ok {
			return errs.NewObjectNotFoundError("order", key)
		}
		d.history[key] = append(slices.Clip(d.history[key]), entry)
		return nil
	})
	if err != nil {
		return err
	}
	r.uow.Track(entry)
	return nil
}

func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.HistoryEntry, error) {
	var entries []order.HistoryEntry
	err := r.uow.run(ctx, func(d *data) error {
		entries = slices.Clone(d.history[orderID.String()])
		return nil
	})
	return entries, err
}
