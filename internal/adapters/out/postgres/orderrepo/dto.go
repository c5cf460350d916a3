// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// Orders live in "orders", their lines in "order_items"; statuses are stored as two-letter codes.
package orderrepo

import (
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Total is denormalized for analytics; the domain recomputes it on load.
type OrderDTO struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items          []OrderItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RedeemedPoints int             `gorm:"type:int;not null;default:0"`
	Discount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status         string          `gorm:"type:varchar(2);not null;index"`
	ScheduledAt    *time.Time      `gorm:"index"`
	Custom         bool            `gorm:"not null;default:false"`
	CreatedBy      string          `gorm:"type:varchar(255);not null"`
	CreatedAt      time.Time       `gorm:"not null;index"`
	ModifiedBy     string          `gorm:"type:varchar(255);not null"`
	ModifiedAt     time.Time       `gorm:"not null"`
	Version        int             `gorm:"type:int;not null"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO is one order line. Exactly one of ProductID and Ingredients is set.
type OrderItemDTO struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"type:int;not null"`
	ProductID   *int64          `gorm:"type:bigint"`
	Ingredients pq.Int64Array   `gorm:"type:bigint[]"`
	Quantity    int             `gorm:"type:int;not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()
	items := make([]OrderItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		dto := OrderItemDTO{
			OrderID:   orderID,
			Position:  i,
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Decimal(),
		}
		if productID, ok := item.ProductID(); ok {
			dto.ProductID = &productID
		} else {
			dto.Ingredients = pq.Int64Array(item.Ingredients())
		}
		items = append(items, dto)
	}

	audit := o.Audit()
	return OrderDTO{
		ID:             orderID,
		UserID:         o.UserID().Bytes(),
		Items:          items,
		Total:          o.Total().Decimal(),
		RedeemedPoints: o.Redemption().Points,
		Discount:       o.Redemption().Discount.Decimal(),
		Status:         o.Status().Code(),
		ScheduledAt:    o.ScheduledAt(),
		Custom:         o.IsCustom(),
		CreatedBy:      audit.CreatedBy,
		CreatedAt:      audit.CreatedAt,
		ModifiedBy:     audit.ModifiedBy,
		ModifiedAt:     audit.ModifiedAt,
		Version:        o.Version(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	discount, err := kernel.NewMoney(dto.Discount)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		price, err := kernel.NewMoney(itemDTO.UnitPrice)
		if err != nil {
			return nil, err
		}
		item, err := order.NewItem(itemDTO.ProductID, []int64(itemDTO.Ingredients), itemDTO.Quantity, price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	var scheduledAt *time.Time
	if dto.ScheduledAt != nil {
		at := dto.ScheduledAt.UTC()
		scheduledAt = &at
	}

	return order.RestoreOrder(
		id,
		userID,
		items,
		order.Redemption{Points: dto.RedeemedPoints, Discount: discount},
		status,
		scheduledAt,
		order.Audit{
			CreatedBy:  dto.CreatedBy,
			CreatedAt:  dto.CreatedAt.UTC(),
			ModifiedBy: dto.ModifiedBy,
			ModifiedAt: dto.ModifiedAt.UTC(),
		},
		dto.Version,
	)
}
