package queries

import (
	"context"
	"errors"

	"pizzeria/internal/core/application/ledger"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/guard"
)

var ErrGetLoyaltyBalanceQueryIsNotConstructed = errors.New(
	"GetLoyaltyBalanceQuery must be created via NewGetLoyaltyBalanceQuery constructor",
)

// GetLoyaltyBalanceQuery reads a user's points. With Points set it also previews the
// discount a redemption of that many points would grant; nothing is debited.
type GetLoyaltyBalanceQuery struct {
	userID kernel.UUID
	points int

	guard guard.ConstructorGuard
}

func NewGetLoyaltyBalanceQuery(userID kernel.UUID) (GetLoyaltyBalanceQuery, error) {
	return NewDiscountPreviewQuery(userID, 0)
}

func NewDiscountPreviewQuery(userID kernel.UUID, points int) (GetLoyaltyBalanceQuery, error) {
	if err := userID.Validate(); err != nil {
		return GetLoyaltyBalanceQuery{}, err
	}
	return GetLoyaltyBalanceQuery{userID: userID, points: points, guard: guard.NewConstructorGuard()}, nil
}

func (q GetLoyaltyBalanceQuery) Validate() error {
	return q.guard.Validate(ErrGetLoyaltyBalanceQueryIsNotConstructed)
}

type GetLoyaltyBalanceQueryResponse struct {
	Balance int

	// Set for discount previews only.
	Points     int
	Discount   kernel.Money
	Sufficient bool
}

type GetLoyaltyBalanceQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	ledger     *ledger.Ledger
}

func NewGetLoyaltyBalanceQueryHandler(uowFactory ports.UnitOfWorkFactory, l *ledger.Ledger) GetLoyaltyBalanceQueryHandler {
	return GetLoyaltyBalanceQueryHandler{uowFactory: uowFactory, ledger: l}
}

func (h GetLoyaltyBalanceQueryHandler) Handle(
	ctx context.Context, query GetLoyaltyBalanceQuery,
) (GetLoyaltyBalanceQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetLoyaltyBalanceQueryResponse{}, err
	}

	balance, err := h.ledger.Balance(ctx, h.uowFactory.Create().AccountRepository(), query.userID)
	if err != nil {
		return GetLoyaltyBalanceQueryResponse{}, err
	}
	resp := GetLoyaltyBalanceQueryResponse{Balance: balance}
	if query.points == 0 {
		return resp, nil
	}

	discount, err := loyalty.DiscountFor(query.points)
	if err != nil {
		return GetLoyaltyBalanceQueryResponse{}, err
	}
	resp.Points = query.points
	resp.Discount = discount
	resp.Sufficient = query.points <= balance
	return resp, nil
}
