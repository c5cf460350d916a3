package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

// DefaultAnalyticsPeriod is the window used when no start is given.
const DefaultAnalyticsPeriod = 30 * 24 * time.Hour

const dayLayout = "2006-01-02"

var ErrGetOrderAnalyticsQueryIsNotConstructed = errors.New(
	"GetOrderAnalyticsQuery must be created via NewGetOrderAnalyticsQuery constructor",
)

// GetOrderAnalyticsQuery aggregates orders created in [From, To). Admin only.
type GetOrderAnalyticsQuery struct {
	actor identity.Actor
	from  *time.Time
	to    *time.Time

	guard guard.ConstructorGuard
}

// NewGetOrderAnalyticsQuery accepts open bounds; the handler defaults them to the
// last DefaultAnalyticsPeriod ending now.
func NewGetOrderAnalyticsQuery(actor identity.Actor, from, to *time.Time) (GetOrderAnalyticsQuery, error) {
	if err := actor.Validate(); err != nil {
		return GetOrderAnalyticsQuery{}, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return GetOrderAnalyticsQuery{}, errs.NewValueIsInvalidErrorWithCause(
			"from", fmt.Errorf("%s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339)),
		)
	}
	return GetOrderAnalyticsQuery{actor: actor, from: from, to: to, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderAnalyticsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderAnalyticsQueryIsNotConstructed)
}

// GetOrderAnalyticsQueryResponse groups per-day counters by UTC calendar day (YYYY-MM-DD).
type GetOrderAnalyticsQueryResponse struct {
	From              time.Time
	To                time.Time
	TotalOrders       int
	Revenue           kernel.Money
	AverageOrderValue kernel.Money
	ScheduledOrders   int
	CustomOrders      int
	ByStatus          map[string]int
	ByDay             map[string]int
	ScheduledByDay    map[string]int
	CustomByDay       map[string]int
}

type GetOrderAnalyticsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	now        func() time.Time
}

func NewGetOrderAnalyticsQueryHandler(uowFactory ports.UnitOfWorkFactory, now func() time.Time) GetOrderAnalyticsQueryHandler {
	return GetOrderAnalyticsQueryHandler{uowFactory: uowFactory, now: now}
}

func (h GetOrderAnalyticsQueryHandler) Handle(
	ctx context.Context, query GetOrderAnalyticsQuery,
) (GetOrderAnalyticsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderAnalyticsQueryResponse{}, err
	}
	if !query.actor.IsAdmin() {
		return GetOrderAnalyticsQueryResponse{}, errs.NewForbiddenError(
			query.actor.Role().String(), "any", "analytics are restricted to admins",
		)
	}

	to := h.now().UTC()
	if query.to != nil {
		to = query.to.UTC()
	}
	from := to.Add(-DefaultAnalyticsPeriod)
	if query.from != nil {
		from = query.from.UTC()
	}
	if !from.Before(to) {
		return GetOrderAnalyticsQueryResponse{}, errs.NewValueIsInvalidErrorWithCause(
			"from", fmt.Errorf("%s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339)),
		)
	}

	orders, err := h.uowFactory.Create().OrderRepository().ListCreatedBetween(ctx, from, to)
	if err != nil {
		return GetOrderAnalyticsQueryResponse{}, err
	}

	resp := GetOrderAnalyticsQueryResponse{
		From:           from,
		To:             to,
		Revenue:        kernel.ZeroMoney(),
		ByStatus:       make(map[string]int),
		ByDay:          make(map[string]int),
		ScheduledByDay: make(map[string]int),
		CustomByDay:    make(map[string]int),
	}
	for _, o := range orders {
		day := o.Audit().CreatedAt.UTC().Format(dayLayout)

		resp.TotalOrders++
		resp.Revenue = resp.Revenue.Add(o.Total())
		resp.ByStatus[o.Status().String()]++
		resp.ByDay[day]++

		if at := o.ScheduledAt(); at != nil {
			resp.ScheduledOrders++
			resp.ScheduledByDay[at.UTC().Format(dayLayout)]++
		}
		if o.IsCustom() {
			resp.CustomOrders++
			resp.CustomByDay[day]++
		}
	}
	resp.AverageOrderValue = resp.Revenue.DividedBy(resp.TotalOrders)
	return resp, nil
}
