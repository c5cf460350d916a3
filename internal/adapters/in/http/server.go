// Package http is the REST and server-sent-events surface of the order service.
package http

import (
	"context"
	"net/http"
	"time"

	"pizzeria/internal/core/application/usecases/commands"
	"pizzeria/internal/core/application/usecases/queries"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type (
	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
	}
	ChangeOrderStatusHandler interface {
		Handle(ctx context.Context, cmd commands.ChangeOrderStatusCommand) (*order.Order, error)
	}
	ListOrdersHandler interface {
		Handle(ctx context.Context, query queries.ListOrdersForActorQuery) ([]*order.Order, error)
	}
	GetOrderDetailsHandler interface {
		Handle(ctx context.Context, query queries.GetOrderDetailsQuery) (queries.GetOrderDetailsQueryResponse, error)
	}
	GetOrderAnalyticsHandler interface {
		Handle(ctx context.Context, query queries.GetOrderAnalyticsQuery) (queries.GetOrderAnalyticsQueryResponse, error)
	}
	GetLoyaltyBalanceHandler interface {
		Handle(ctx context.Context, query queries.GetLoyaltyBalanceQuery) (queries.GetLoyaltyBalanceQueryResponse, error)
	}
)

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	// Command handlers
	createOrderHandler       CreateOrderHandler
	changeOrderStatusHandler ChangeOrderStatusHandler

	// Query handlers
	listOrdersHandler        ListOrdersHandler
	getOrderDetailsHandler   GetOrderDetailsHandler
	getOrderAnalyticsHandler GetOrderAnalyticsHandler
	getLoyaltyBalanceHandler GetLoyaltyBalanceHandler

	events    EventSource
	heartbeat time.Duration
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates the HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler CreateOrderHandler,
	changeOrderStatusHandler ChangeOrderStatusHandler,
	listOrdersHandler ListOrdersHandler,
	getOrderDetailsHandler GetOrderDetailsHandler,
	getOrderAnalyticsHandler GetOrderAnalyticsHandler,
	getLoyaltyBalanceHandler GetLoyaltyBalanceHandler,
	events EventSource,
) *Server {
	return &Server{
		createOrderHandler:       createOrderHandler,
		changeOrderStatusHandler: changeOrderStatusHandler,
		listOrdersHandler:        listOrdersHandler,
		getOrderDetailsHandler:   getOrderDetailsHandler,
		getOrderAnalyticsHandler: getOrderAnalyticsHandler,
		getLoyaltyBalanceHandler: getLoyaltyBalanceHandler,
		events:                   events,
		heartbeat:                DefaultHeartbeat,
	}
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	var req NewOrderRequest
	if err = ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	lines := make([]commands.ItemLine, 0, len(req.Items))
	for _, item := range req.Items {
		price, priceErr := kernel.NewMoney(item.UnitPrice)
		if priceErr != nil {
			return priceErr
		}
		lines = append(lines, commands.ItemLine{
			ProductID:   item.ProductID,
			Ingredients: item.Ingredients,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), actor, lines, req.RedeemPoints, req.ScheduledAt)
	if err != nil {
		return err
	}

	created, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, toOrderResponse(created))
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(ctx echo.Context) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	query, err := queries.NewListOrdersForActorQuery(actor)
	if err != nil {
		return err
	}

	orders, err := s.listOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	response := make([]OrderResponse, len(orders))
	for i, o := range orders {
		response[i] = toOrderResponse(o)
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrderAnalytics handles GET /api/v1/orders/analytics.
func (s *Server) GetOrderAnalytics(ctx echo.Context, params GetOrderAnalyticsParams) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderAnalyticsQuery(actor, params.From, params.To)
	if err != nil {
		return err
	}

	analytics, err := s.getOrderAnalyticsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toAnalyticsResponse(analytics))
}

// GetOrder handles GET /api/v1/orders/{id}.
func (s *Server) GetOrder(ctx echo.Context, id openapi_types.UUID) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	details, err := s.details(ctx.Request().Context(), id, actor)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toOrderDetailsResponse(details))
}

// ChangeOrderStatus handles PUT /api/v1/orders/{id}/status.
func (s *Server) ChangeOrderStatus(ctx echo.Context, id openapi_types.UUID) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	var req StatusChangeRequest
	if err = ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return err
	}

	cmd, err := commands.NewChangeOrderStatusCommand(orderID, target, actor)
	if err != nil {
		return err
	}

	changed, err := s.changeOrderStatusHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toOrderResponse(changed))
}

// GetLoyaltyPoints handles GET /api/v1/loyalty/points.
func (s *Server) GetLoyaltyPoints(ctx echo.Context) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	query, err := queries.NewGetLoyaltyBalanceQuery(actor.ID())
	if err != nil {
		return err
	}

	balance, err := s.getLoyaltyBalanceHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, BalanceResponse{Points: balance.Balance})
}

// PreviewDiscount handles GET /api/v1/loyalty/discount.
func (s *Server) PreviewDiscount(ctx echo.Context, params PreviewDiscountParams) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if params.Points <= 0 {
		return errs.NewValueIsOutOfRangeError("points", params.Points, 1, "unbounded")
	}

	query, err := queries.NewDiscountPreviewQuery(actor.ID(), params.Points)
	if err != nil {
		return err
	}

	preview, err := s.getLoyaltyBalanceHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, DiscountPreviewResponse{
		Balance:    preview.Balance,
		Points:     preview.Points,
		Discount:   preview.Discount.String(),
		Sufficient: preview.Sufficient,
	})
}

// details loads an order as actor may see it; it doubles as the access check for streams.
func (s *Server) details(
	ctx context.Context, id openapi_types.UUID, actor identity.Actor,
) (queries.GetOrderDetailsQueryResponse, error) {
	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return queries.GetOrderDetailsQueryResponse{}, err
	}

	query, err := queries.NewGetOrderDetailsQuery(orderID, actor)
	if err != nil {
		return queries.GetOrderDetailsQueryResponse{}, err
	}

	return s.getOrderDetailsHandler.Handle(ctx, query)
}
