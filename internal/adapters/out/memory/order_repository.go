package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.run(ctx, func(d *data) error {
		key := aggregate.ID().String()
		if _, ok := d.orders[key]; ok {
			return errs.NewConflictError("order", key)
		}
		d.orders[key] = recordOf(aggregate)
		return nil
	})
}

func (r *OrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.run(ctx, func(d *data) error {
		key := aggregate.ID().String()
		stored, ok := d.orders[key]
		if !ok {
			return errs.NewObjectNotFoundError("order", key)
		}
		if stored.version != aggregate.Version()-1 {
			return errs.NewConflictError("order", key)
		}
		d.orders[key] = recordOf(aggregate)
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	var result *order.Order
	err := r.uow.run(ctx, func(d *data) error {
		stored, ok := d.orders[id.String()]
		if !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		var err error
		result, err = stored.restore()
		return err
	})
	return result, err
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID kernel.UUID) ([]*order.Order, error) {
	return r.list(ctx, newestFirst, func(rec orderRecord) bool {
		return rec.userID.IsEqual(userID)
	})
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*order.Order, error) {
	return r.list(ctx, newestFirst, func(orderRecord) bool { return true })
}

func (r *OrderRepository) ListInStatuses(ctx context.Context, statuses []order.Status) ([]*order.Order, error) {
	return r.list(ctx, oldestFirst, func(rec orderRecord) bool {
		return slices.Contains(statuses, rec.status)
	})
}

func (r *OrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	return r.list(ctx, oldestFirst, func(rec orderRecord) bool {
		return !rec.audit.CreatedAt.Before(from) && rec.audit.CreatedAt.Before(to)
	})
}

func (r *OrderRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	return r.list(ctx, oldestFirst, func(rec orderRecord) bool {
		return rec.scheduledAt != nil && !rec.status.IsTerminal() &&
			!rec.scheduledAt.Before(from) && rec.scheduledAt.Before(to)
	})
}

func newestFirst(a, b orderRecord) int {
	return cmp.Or(b.audit.CreatedAt.Compare(a.audit.CreatedAt), cmp.Compare(a.id.String(), b.id.String()))
}

func oldestFirst(a, b orderRecord) int {
	return cmp.Or(a.audit.CreatedAt.Compare(b.audit.CreatedAt), cmp.Compare(a.id.String(), b.id.String()))
}

func (r *OrderRepository) list(
	ctx context.Context, less func(a, b orderRecord) int, keep func(orderRecord) bool,
) ([]*order.Order, error) {
	var records []orderRecord
	err := r.uow.run(ctx, func(d *data) error {
		for _, rec := range d.orders {
			if keep(rec) {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(records, less)

	result := make([]*order.Order, 0, len(records))
	for _, rec := range records {
		o, err := rec.restore()
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}
