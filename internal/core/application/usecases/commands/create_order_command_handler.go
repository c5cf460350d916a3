package commands

import (
	"context"
	"log/slog"
	"time"

	"pizzeria/internal/core/application/ledger"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/keylock"
)

// CreateOrderCommandHandler is the order intake: it redeems loyalty points, prices
// and persists the order in PENDING with its first history record, then awards
// points and notifies subscribers.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, ledger, locks, publisher, 5*time.Second, time.Now, logger)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory IntakeUoWFactory
	ledger     *ledger.Ledger
	locks      *keylock.Locker
	publisher  ports.EventPublisher
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory IntakeUoWFactory,
	ledger *ledger.Ledger,
	locks *keylock.Locker,
	publisher ports.EventPublisher,
	timeout time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		ledger:     ledger,
		locks:      locks,
		publisher:  publisher,
		timeout:    timeout,
		now:        now,
		logger:     logger.With("component", "OrderIntake"),
	}
}

// Handle creates the order. Redemption and persistence share one transaction: if
// either fails nothing is stored and no notification is sent. The points award
// after commit is best-effort.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	if err := order.ValidateSchedule(cmd.ScheduledAt(), now); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	// Held until the creation is published, so no transition of the new order is
	// announced ahead of it.
	unlock, err := h.locks.Lock(opCtx, OrderLockKey(cmd.OrderID()))
	if err != nil {
		return nil, errs.NewUnavailableErrorWithCause("order lock", err)
	}
	defer unlock()

	created, entries, err := h.persist(opCtx, cmd, now)
	if err != nil {
		return nil, unavailableOnTimeout(err, "create order")
	}

	h.logger.InfoContext(ctx, "order created",
		"orderId", created.ID().String(), "userId", created.UserID().String(),
		"total", created.Total().String(), "custom", created.IsCustom())

	h.award(ctx, created, cmd.Actor().Identity())
	publishStatusChanges(ctx, h.publisher, h.logger, entries)
	return created, nil
}

func (h *CreateOrderCommandHandler) persist(
	ctx context.Context, cmd CreateOrderCommand, now time.Time,
) (*order.Order, []order.HistoryEntry, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	actor := cmd.Actor()
	redemption := order.NoRedemption()
	if cmd.RedeemPoints() > 0 {
		discount, err := h.ledger.Redeem(ctx, uow.AccountRepository(), actor.ID(), cmd.RedeemPoints(), actor.Identity())
		if err != nil {
			return nil, nil, err
		}
		redemption = order.Redemption{Points: cmd.RedeemPoints(), Discount: discount}
	}

	created, err := order.NewOrder(cmd.OrderID(), actor.ID(), cmd.Items(), redemption, cmd.ScheduledAt(), actor, now)
	if err != nil {
		return nil, nil, err
	}

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, nil, err
	}

	entry, err := created.CreationEntry(kernel.NewUUID())
	if err != nil {
		return nil, nil, err
	}
	if err = uow.HistoryRepository().Append(ctx, entry); err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return created, uow.TrackedEntries(), nil
}

// award credits points for the persisted total. It never fails the order.
func (h *CreateOrderCommandHandler) award(ctx context.Context, created *order.Order, by string) {
	awardCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	err := func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(awardCtx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(awardCtx)
		}()
		if _, err := h.ledger.Award(awardCtx, uow.AccountRepository(), created.UserID(), created.Total(), by); err != nil {
			return err
		}
		return uow.Commit(awardCtx)
	}()
	if err != nil {
		h.logger.WarnContext(ctx, "failed to award loyalty points",
			"orderId", created.ID().String(), "userId", created.UserID().String(), "error", err)
	}
}
