// Package historyrepo persists the append-only status history of orders.
package historyrepo

import (
	"context"
	"errors"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryDTO is one row of order_status_history.
type EntryDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_history_order_time,priority:1"`
	Status    string    `gorm:"type:varchar(2);not null"`
	ChangedBy string    `gorm:"type:varchar(255);not null"`
	ChangedAt time.Time `gorm:"not null;index:idx_history_order_time,priority:2"`
}

func (EntryDTO) TableName() string {
	return "order_status_history"
}

// GormHistoryRepository implements ports.HistoryRepository using GORM.
type GormHistoryRepository struct {
	db      *gorm.DB
	tracker ports.Tracker
}

func NewGormHistoryRepository(db *gorm.DB, tracker ports.Tracker) *GormHistoryRepository {
	return &GormHistoryRepository{db: db, tracker: tracker}
}

// Append stores the entry and registers it with the unit of work.
func (r *GormHistoryRepository) Append(ctx context.Context, entry order.HistoryEntry) error {
	var exists int64
	if err := r.db.WithContext(ctx).Table("orders").Where("id = ?", entry.OrderID().Bytes()).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return errs.NewObjectNotFoundError("order", entry.OrderID().String())
	}

	dto := EntryDTO{
		ID:        entry.ID().Bytes(),
		OrderID:   entry.OrderID().Bytes(),
		Status:    entry.Status().Code(),
		ChangedBy: entry.ChangedBy(),
		ChangedAt: entry.ChangedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("history entry", entry.ID().String(), err)
		}
		return err
	}

	if r.tracker != nil {
		r.tracker.Track(entry)
	}
	return nil
}

// ListByOrder returns the entries of one order in chronological order.
func (r *GormHistoryRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.HistoryEntry, error) {
	var dtos []EntryDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("changed_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	entries := make([]order.HistoryEntry, 0, len(dtos))
	for _, dto := range dtos {
		entry, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toDomain(dto EntryDTO) (order.HistoryEntry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.HistoryEntry{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.HistoryEntry{}, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return order.HistoryEntry{}, err
	}
	return order.NewHistoryEntry(id, orderID, status, dto.ChangedBy, dto.ChangedAt)
}
