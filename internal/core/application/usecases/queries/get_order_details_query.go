package queries

import (
	"context"
	"errors"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

var ErrGetOrderDetailsQueryIsNotConstructed = errors.New(
	"GetOrderDetailsQuery must be created via NewGetOrderDetailsQuery constructor",
)

// GetOrderDetailsQuery reads one order with its status history.
// Clients may only read their own orders.
type GetOrderDetailsQuery struct {
	orderID kernel.UUID
	actor   identity.Actor

	guard guard.ConstructorGuard
}

func NewGetOrderDetailsQuery(orderID kernel.UUID, actor identity.Actor) (GetOrderDetailsQuery, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return GetOrderDetailsQuery{}, err
	}
	return GetOrderDetailsQuery{orderID: orderID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderDetailsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderDetailsQueryIsNotConstructed)
}

// GetOrderDetailsQueryResponse carries the order and its history in chronological order.
type GetOrderDetailsQueryResponse struct {
	Order   *order.Order
	History []order.HistoryEntry
}

type GetOrderDetailsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetOrderDetailsQueryHandler(uowFactory ports.UnitOfWorkFactory) GetOrderDetailsQueryHandler {
	return GetOrderDetailsQueryHandler{uowFactory: uowFactory}
}

func (h GetOrderDetailsQueryHandler) Handle(
	ctx context.Context, query GetOrderDetailsQuery,
) (GetOrderDetailsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderDetailsQueryResponse{}, err
	}

	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, query.orderID)
	if err != nil {
		return GetOrderDetailsQueryResponse{}, err
	}

	if query.actor.Role() == identity.Client && !query.actor.ID().IsEqual(o.UserID()) {
		return GetOrderDetailsQueryResponse{}, errs.NewForbiddenError(
			query.actor.Role().String(), o.Status().String(), "clients may only read their own orders",
		)
	}

	history, err := uow.HistoryRepository().ListByOrder(ctx, o.ID())
	if err != nil {
		return GetOrderDetailsQueryResponse{}, err
	}
	return GetOrderDetailsQueryResponse{Order: o, History: history}, nil
}
