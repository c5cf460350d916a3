package orderrepo

import (
	"context"
	"errors"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order together with its items.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("order", aggregate.ID().String(), err)
		}
		return err
	}
	return nil
}

// Update writes the mutable columns when the stored version is the previous one.
// Items are immutable after creation and are not touched.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	audit := aggregate.Audit()
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", aggregate.ID().Bytes(), aggregate.Version()-1).
		Updates(map[string]any{
			"status":      aggregate.Status().Code(),
			"modified_by": audit.ModifiedBy,
			"modified_at": audit.ModifiedAt,
			"version":     aggregate.Version(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", aggregate.ID().Bytes()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return errs.NewConflictError("order", aggregate.ID().String())
	}
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.withItems(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID kernel.UUID) ([]*order.Order, error) {
	return r.find(r.withItems(ctx).Where("user_id = ?", userID.Bytes()).Order("created_at DESC, id"))
}

func (r *GormOrderRepository) ListAll(ctx context.Context) ([]*order.Order, error) {
	return r.find(r.withItems(ctx).Order("created_at DESC, id"))
}

func (r *GormOrderRepository) ListInStatuses(ctx context.Context, statuses []order.Status) ([]*order.Order, error) {
	if len(statuses) == 0 {
		return []*order.Order{}, nil
	}
	return r.find(r.withItems(ctx).Where("status IN ?", codes(statuses)).Order("created_at, id"))
}

func (r *GormOrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	return r.find(r.withItems(ctx).Where("created_at >= ? AND created_at < ?", from, to).Order("created_at, id"))
}

func (r *GormOrderRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	terminal := codes([]order.Status{order.DeliveredPaid, order.Cancelled})
	return r.find(r.withItems(ctx).
		Where("scheduled_at >= ? AND scheduled_at < ? AND status NOT IN ?", from, to, terminal).
		Order("scheduled_at, id"))
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func codes(statuses []order.Status) []string {
	result := make([]string, 0, len(statuses))
	for _, s := range statuses {
		result = append(result, s.Code())
	}
	return result
}
