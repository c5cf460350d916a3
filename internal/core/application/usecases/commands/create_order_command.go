package commands

import (
	"errors"
	"fmt"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// ItemLine is one requested order line. A non-empty Ingredients list makes it a
// build-your-own item and ProductID is ignored.
type ItemLine struct {
	ProductID   *int64
	Ingredients []int64
	Quantity    int
	UnitPrice   kernel.Money
}

// CreateOrderCommand represents a customer placing an order.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), actor, lines, 20, nil)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	actor        identity.Actor
	items        []order.Item
	redeemPoints int
	scheduledAt  *time.Time

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand builds the order lines and validates the request shape.
// The schedule lead time is checked by the handler against its clock.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	actor identity.Actor,
	lines []ItemLine,
	redeemPoints int,
	scheduledAt *time.Time,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard:       guard.NewConstructorGuard(),
		scheduledAt: scheduledAt,
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setActor(actor),
		cmd.setItems(lines),
		cmd.setRedeemPoints(redeemPoints),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Actor is the customer placing, and owning, the order.
func (c CreateOrderCommand) Actor() identity.Actor {
	return c.actor
}

func (c CreateOrderCommand) Items() []order.Item {
	return c.items
}

// RedeemPoints is 0 when no loyalty discount is requested.
func (c CreateOrderCommand) RedeemPoints() int {
	return c.redeemPoints
}

func (c CreateOrderCommand) ScheduledAt() *time.Time {
	return c.scheduledAt
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setActor(actor identity.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	c.actor = actor
	return nil
}

func (c *CreateOrderCommand) setItems(lines []ItemLine) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	items := make([]order.Item, 0, len(lines))
	var lineErrs []error
	for i, line := range lines {
		item, err := order.NewItem(line.ProductID, line.Ingredients, line.Quantity, line.UnitPrice)
		if err != nil {
			lineErrs = append(lineErrs, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	if err := errors.Join(lineErrs...); err != nil {
		return err
	}
	c.items = items
	return nil
}

func (c *CreateOrderCommand) setRedeemPoints(points int) error {
	if points < 0 {
		return errs.NewValueIsInvalidErrorWithCause("redeemPoints", fmt.Errorf("%d is negative", points))
	}
	c.redeemPoints = points
	return nil
}
