package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/keylock"
)

// DefaultTransitionRetries is used when the handler receives a non-positive retry count.
const DefaultTransitionRetries = 3

// OrderLockKey is the keylock key serializing transitions of one order.
func OrderLockKey(orderID kernel.UUID) string {
	return "order:" + orderID.String()
}

// ChangeOrderStatusCommandHandler is the order lifecycle engine.
//
// Transitions of one order are serialized by a per-order lock for the whole
// read-validate-write sequence; the version check in OrderRepository.Update covers
// writers outside this process and is retried on conflict.
type ChangeOrderStatusCommandHandler struct {
	uowFactory LifecycleUoWFactory
	locks      *keylock.Locker
	publisher  ports.EventPublisher
	timeout    time.Duration
	retries    int
	now        func() time.Time
	logger     *slog.Logger
}

func NewChangeOrderStatusCommandHandler(
	uowFactory LifecycleUoWFactory,
	locks *keylock.Locker,
	publisher ports.EventPublisher,
	timeout time.Duration,
	retries int,
	now func() time.Time,
	logger *slog.Logger,
) ChangeOrderStatusCommandHandler {
	if retries <= 0 {
		retries = DefaultTransitionRetries
	}
	return ChangeOrderStatusCommandHandler{
		uowFactory: uowFactory,
		locks:      locks,
		publisher:  publisher,
		timeout:    timeout,
		retries:    retries,
		now:        now,
		logger:     logger.With("component", "OrderLifecycle"),
	}
}

// Handle applies the transition and returns the updated order. A rejected request
// leaves the order and its history untouched and publishes nothing.
func (h *ChangeOrderStatusCommandHandler) Handle(ctx context.Context, cmd ChangeOrderStatusCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	unlock, err := h.locks.Lock(opCtx, OrderLockKey(cmd.OrderID()))
	if err != nil {
		return nil, errs.NewUnavailableErrorWithCause("order lock", err)
	}
	defer unlock()

	var (
		updated *order.Order
		entries []order.HistoryEntry
	)
	for attempt := 1; attempt <= h.retries; attempt++ {
		updated, entries, err = h.apply(opCtx, cmd)
		if err == nil || !errors.Is(err, errs.ErrConflict) {
			break
		}
		h.logger.DebugContext(ctx, "order modified concurrently, retrying",
			"orderId", cmd.OrderID().String(), "attempt", attempt)
	}
	if err != nil {
		h.logger.InfoContext(ctx, "transition rejected",
			"orderId", cmd.OrderID().String(), "target", cmd.Target().String(),
			"role", cmd.Actor().Role().String(), "kind", string(errs.KindOf(err)), "error", err)
		return nil, unavailableOnTimeout(err, "change order status")
	}

	h.logger.InfoContext(ctx, "order status changed",
		"orderId", updated.ID().String(), "status", updated.Status().String(), "by", cmd.Actor().Identity())

	publishStatusChanges(ctx, h.publisher, h.logger, entries)
	return updated, nil
}

func (h *ChangeOrderStatusCommandHandler) apply(
	ctx context.Context, cmd ChangeOrderStatusCommand,
) (*order.Order, []order.HistoryEntry, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	current, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, nil, err
	}

	entry, err := current.ChangeStatus(cmd.Target(), cmd.Actor(), kernel.NewUUID(), h.now())
	if err != nil {
		return nil, nil, err
	}

	if err = uow.OrderRepository().Update(ctx, current); err != nil {
		return nil, nil, err
	}
	if err = uow.HistoryRepository().Append(ctx, entry); err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return current, uow.TrackedEntries(), nil
}
