package http

import (
	"fmt"
	"net/http"
	"time"

	"pizzeria/internal/adapters/out/notify"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// DefaultHeartbeat is the interval of SSE comment lines that keep idle streams open.
const DefaultHeartbeat = 15 * time.Second

const statusEvent = "status"

// EventSource hands out live topic subscriptions.
type EventSource interface {
	Subscribe(topic string) *notify.Subscription
}

// StreamOrderEvents handles GET /api/v1/orders/events. Clients have no global view.
func (s *Server) StreamOrderEvents(ctx echo.Context) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if actor.Role() == identity.Client {
		return errs.NewForbiddenError(actor.Role().String(), "", "clients may only follow their own orders")
	}

	return s.stream(ctx, order.GlobalTopic)
}

// StreamOrderEventsByID handles GET /api/v1/orders/{id}/events.
func (s *Server) StreamOrderEventsByID(ctx echo.Context, id openapi_types.UUID) error {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return err
	}

	details, err := s.details(ctx.Request().Context(), id, actor)
	if err != nil {
		return err
	}

	return s.stream(ctx, order.TopicFor(details.Order.ID()))
}

// SetHeartbeat overrides DefaultHeartbeat.
func (s *Server) SetHeartbeat(interval time.Duration) {
	if interval > 0 {
		s.heartbeat = interval
	}
}

func (s *Server) stream(ctx echo.Context, topic string) error {
	sub := s.events.Subscribe(topic)
	defer sub.Close()

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case payload, ok := <-sub.C:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", statusEvent, payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
