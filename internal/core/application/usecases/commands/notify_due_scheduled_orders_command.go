package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

var ErrNotifyDueScheduledOrdersCommandIsNotConstructed = errors.New(
	"NotifyDueScheduledOrdersCommand must be created via NewNotifyDueScheduledOrdersCommand constructor",
)

// NotifyDueScheduledOrdersCommand announces scheduled orders whose preparation window
// (MinScheduleLead before the scheduled time) opened in [from, to).
type NotifyDueScheduledOrdersCommand struct { //nolint:recvcheck //using for validation
	from time.Time
	to   time.Time

	guard guard.ConstructorGuard
}

func NewNotifyDueScheduledOrdersCommand(from, to time.Time) (NotifyDueScheduledOrdersCommand, error) {
	if !from.Before(to) {
		return NotifyDueScheduledOrdersCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"window", fmt.Errorf("%s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339)),
		)
	}
	return NotifyDueScheduledOrdersCommand{from: from, to: to, guard: guard.NewConstructorGuard()}, nil
}

func (c NotifyDueScheduledOrdersCommand) Validate() error {
	return c.guard.Validate(ErrNotifyDueScheduledOrdersCommandIsNotConstructed)
}

func (c NotifyDueScheduledOrdersCommand) From() time.Time {
	return c.from
}

func (c NotifyDueScheduledOrdersCommand) To() time.Time {
	return c.to
}

type NotifyDueScheduledOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewNotifyDueScheduledOrdersCommandHandler(
	uowFactory OrderUoWFactory, publisher ports.EventPublisher, logger *slog.Logger,
) NotifyDueScheduledOrdersCommandHandler {
	return NotifyDueScheduledOrdersCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "ScheduledOrders"),
	}
}

// Handle returns the number of orders announced.
func (h *NotifyDueScheduledOrdersCommandHandler) Handle(ctx context.Context, cmd NotifyDueScheduledOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	due, err := uow.OrderRepository().ListScheduledBetween(ctx,
		cmd.From().Add(order.MinScheduleLead), cmd.To().Add(order.MinScheduleLead))
	if err != nil {
		return 0, err
	}

	for _, o := range due {
		payload, err := json.Marshal(order.ScheduledOrderDue{OrderID: o.ID(), ScheduledAt: *o.ScheduledAt()})
		if err != nil {
			return 0, err
		}
		if err = h.publisher.Publish(ctx, order.ScheduledTopic, payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to publish scheduled order reminder",
				"orderId", o.ID().String(), "error", err)
		}
	}
	return len(due), nil
}
