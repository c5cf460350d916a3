package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// GetOrderAnalyticsParams defines parameters for GetOrderAnalytics.
type GetOrderAnalyticsParams struct {
	From *time.Time `form:"from,omitempty" json:"from,omitempty"`
	To   *time.Time `form:"to,omitempty" json:"to,omitempty"`
}

// PreviewDiscountParams defines parameters for PreviewDiscount.
type PreviewDiscountParams struct {
	Points int `form:"points" json:"points"`
}

// ServerInterface represents all server handlers of openapi.yaml.
type ServerInterface interface {
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// (GET /api/v1/orders)
	ListOrders(ctx echo.Context) error
	// (GET /api/v1/orders/analytics)
	GetOrderAnalytics(ctx echo.Context, params GetOrderAnalyticsParams) error
	// (GET /api/v1/orders/events)
	StreamOrderEvents(ctx echo.Context) error
	// (GET /api/v1/orders/{id})
	GetOrder(ctx echo.Context, id openapi_types.UUID) error
	// (PUT /api/v1/orders/{id}/status)
	ChangeOrderStatus(ctx echo.Context, id openapi_types.UUID) error
	// (GET /api/v1/orders/{id}/events)
	StreamOrderEventsByID(ctx echo.Context, id openapi_types.UUID) error
	// (GET /api/v1/loyalty/points)
	GetLoyaltyPoints(ctx echo.Context) error
	// (GET /api/v1/loyalty/discount)
	PreviewDiscount(ctx echo.Context, params PreviewDiscountParams) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

func (w *ServerInterfaceWrapper) ListOrders(ctx echo.Context) error {
	return w.Handler.ListOrders(ctx)
}

func (w *ServerInterfaceWrapper) GetOrderAnalytics(ctx echo.Context) error {
	var params GetOrderAnalyticsParams

	if err := runtime.BindQueryParameter("form", true, false, "from", ctx.QueryParams(), &params.From); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter from: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "to", ctx.QueryParams(), &params.To); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter to: %s", err))
	}

	return w.Handler.GetOrderAnalytics(ctx, params)
}

func (w *ServerInterfaceWrapper) StreamOrderEvents(ctx echo.Context) error {
	return w.Handler.StreamOrderEvents(ctx)
}

func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetOrder(ctx, id)
}

func (w *ServerInterfaceWrapper) ChangeOrderStatus(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ChangeOrderStatus(ctx, id)
}

func (w *ServerInterfaceWrapper) StreamOrderEventsByID(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.StreamOrderEventsByID(ctx, id)
}

func (w *ServerInterfaceWrapper) GetLoyaltyPoints(ctx echo.Context) error {
	return w.Handler.GetLoyaltyPoints(ctx)
}

func (w *ServerInterfaceWrapper) PreviewDiscount(ctx echo.Context) error {
	var params PreviewDiscountParams

	if err := runtime.BindQueryParameter("form", true, true, "points", ctx.QueryParams(), &params.Points); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter points: %s", err))
	}

	return w.Handler.PreviewDiscount(ctx, params)
}

func bindOrderID(ctx echo.Context) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, prefixing every path with baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST(baseURL+"/api/v1/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/api/v1/orders", wrapper.ListOrders)
	router.GET(baseURL+"/api/v1/orders/analytics", wrapper.GetOrderAnalytics)
	router.GET(baseURL+"/api/v1/orders/events", wrapper.StreamOrderEvents)
	router.GET(baseURL+"/api/v1/orders/:id", wrapper.GetOrder)
	router.PUT(baseURL+"/api/v1/orders/:id/status", wrapper.ChangeOrderStatus)
	router.GET(baseURL+"/api/v1/orders/:id/events", wrapper.StreamOrderEventsByID)
	router.GET(baseURL+"/api/v1/loyalty/points", wrapper.GetLoyaltyPoints)
	router.GET(baseURL+"/api/v1/loyalty/discount", wrapper.PreviewDiscount)
}
