package order

import (
	"errors"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
)

// HistoryEntry is one immutable record of the order's status-history audit trail.
// One is written per transition, including the initial PENDING at creation.
type HistoryEntry struct {
	id        kernel.UUID
	orderID   kernel.UUID
	status    Status
	changedBy string
	changedAt time.Time
}

// NewHistoryEntry validates and builds a history record.
func NewHistoryEntry(
	id, orderID kernel.UUID, status Status, changedBy string, changedAt time.Time,
) (HistoryEntry, error) {
	var actorErr, timeErr error
	if changedBy == "" {
		actorErr = errs.NewValueIsRequiredError("changedBy")
	}
	if changedAt.IsZero() {
		timeErr = errs.NewValueIsRequiredError("changedAt")
	}
	if err := errors.Join(id.Validate(), orderID.Validate(), status.Validate(), actorErr, timeErr); err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{
		id:        id,
		orderID:   orderID,
		status:    status,
		changedBy: changedBy,
		changedAt: changedAt.UTC(),
	}, nil
}

func (h HistoryEntry) ID() kernel.UUID {
	return h.id
}

func (h HistoryEntry) OrderID() kernel.UUID {
	return h.orderID
}

func (h HistoryEntry) Status() Status {
	return h.status
}

func (h HistoryEntry) ChangedBy() string {
	return h.changedBy
}

func (h HistoryEntry) ChangedAt() time.Time {
	return h.changedAt
}
