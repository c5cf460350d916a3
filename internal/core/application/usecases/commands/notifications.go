package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// publishStatusChanges notifies subscribers of committed history entries. Failures
// are logged; the committed change stands.
func publishStatusChanges(
	ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, entries []order.HistoryEntry,
) {
	for _, entry := range entries {
		event := order.StatusChangedFrom(entry)
		payload, err := json.Marshal(event)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode status change", "orderId", entry.OrderID().String(), "error", err)
			continue
		}
		for _, topic := range event.Topics() {
			if err = publisher.Publish(ctx, topic, payload); err != nil {
				logger.ErrorContext(ctx, "failed to publish status change",
					"orderId", entry.OrderID().String(), "topic", topic, "error", err)
			}
		}
	}
}

// unavailableOnTimeout turns an unclassified deadline or cancellation into errs.UnavailableError.
func unavailableOnTimeout(err error, operation string) error {
	if err == nil || errs.KindOf(err) != errs.KindInternal {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.NewUnavailableErrorWithCause(operation, err)
	}
	return err
}
