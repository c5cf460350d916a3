// Package queries contains read-only operations: role work queues, order details,
// analytics and loyalty balance lookups.
package queries

import (
	"context"
	"errors"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/guard"
)

var ErrListOrdersForActorQueryIsNotConstructed = errors.New(
	"ListOrdersForActorQuery must be created via NewListOrdersForActorQuery constructor",
)

// ListOrdersForActorQuery returns the actor's work queue.
//
//   - Admin: every order, newest first
//   - Client: their own orders, newest first
//   - Kitchen, Delivery, Waiter: orders in the statuses the role may act on, oldest first
type ListOrdersForActorQuery struct {
	actor identity.Actor

	guard guard.ConstructorGuard
}

func NewListOrdersForActorQuery(actor identity.Actor) (ListOrdersForActorQuery, error) {
	if err := actor.Validate(); err != nil {
		return ListOrdersForActorQuery{}, err
	}
	return ListOrdersForActorQuery{actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersForActorQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersForActorQueryIsNotConstructed)
}

func (q ListOrdersForActorQuery) Actor() identity.Actor {
	return q.actor
}

type ListOrdersForActorQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListOrdersForActorQueryHandler(uowFactory ports.UnitOfWorkFactory) ListOrdersForActorQueryHandler {
	return ListOrdersForActorQueryHandler{uowFactory: uowFactory}
}

func (h ListOrdersForActorQueryHandler) Handle(ctx context.Context, query ListOrdersForActorQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	repo := h.uowFactory.Create().OrderRepository()
	actor := query.Actor()
	switch actor.Role() {
	case identity.Admin:
		return repo.ListAll(ctx)
	case identity.Client:
		return repo.ListByUser(ctx, actor.ID())
	case identity.Kitchen, identity.Delivery, identity.Waiter:
		return repo.ListInStatuses(ctx, order.ActionableStatuses(actor.Role()))
	case identity.UnknownRole:
		return nil, actor.Role().Validate()
	default:
		return nil, actor.Role().Validate()
	}
}
