package http

import (
	"time"

	"pizzeria/internal/core/application/usecases/queries"
	"pizzeria/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// NewItemRequest is one requested line. Exactly one of ProductID and Ingredients is set.
type NewItemRequest struct {
	ProductID   *int64          `json:"productId,omitempty" validate:"required_without=Ingredients,excluded_with=Ingredients"`
	Ingredients []int64         `json:"ingredients,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type NewOrderRequest struct {
	Items        []NewItemRequest `json:"items" validate:"required,min=1,dive"`
	RedeemPoints int              `json:"redeemPoints" validate:"min=0"`
	ScheduledAt  *time.Time       `json:"scheduledAt,omitempty"`
}

type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

type ItemResponse struct {
	ProductID   *int64  `json:"productId,omitempty"`
	Ingredients []int64 `json:"ingredients,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unitPrice"`
	Subtotal    string  `json:"subtotal"`
}

type OrderResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Status         string         `json:"status"`
	StatusCode     string         `json:"statusCode"`
	Items          []ItemResponse `json:"items"`
	Total          string         `json:"total"`
	Discount       string         `json:"discount"`
	RedeemedPoints int            `json:"redeemedPoints"`
	Custom         bool           `json:"custom"`
	ScheduledAt    *time.Time     `json:"scheduledAt,omitempty"`
	CreatedBy      string         `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	ModifiedBy     string         `json:"modifiedBy"`
	ModifiedAt     time.Time      `json:"modifiedAt"`
	Version        int            `json:"version"`
}

type HistoryEntryResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

type OrderDetailsResponse struct {
	OrderResponse
	History []HistoryEntryResponse `json:"history"`
}

type AnalyticsResponse struct {
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	TotalOrders       int            `json:"totalOrders"`
	Revenue           string         `json:"revenue"`
	AverageOrderValue string         `json:"averageOrderValue"`
	ScheduledOrders   int            `json:"scheduledOrders"`
	CustomOrders      int            `json:"customOrders"`
	ByStatus          map[string]int `json:"byStatus"`
	ByDay             map[string]int `json:"byDay"`
	ScheduledByDay    map[string]int `json:"scheduledByDay"`
	CustomByDay       map[string]int `json:"customByDay"`
}

type BalanceResponse struct {
	Points int `json:"points"`
}

type DiscountPreviewResponse struct {
	Balance    int    `json:"balance"`
	Points     int    `json:"points"`
	Discount   string `json:"discount"`
	Sufficient bool   `json:"sufficient"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items()))
	for _, item := range o.Items() {
		resp := ItemResponse{
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().String(),
			Subtotal:  item.Subtotal().String(),
		}
		if productID, ok := item.ProductID(); ok {
			resp.ProductID = &productID
		} else {
			resp.Ingredients = item.Ingredients()
		}
		items = append(items, resp)
	}

	audit := o.Audit()
	return OrderResponse{
		ID:             o.ID().String(),
		UserID:         o.UserID().String(),
		Status:         o.Status().String(),
		StatusCode:     o.Status().Code(),
		Items:          items,
		Total:          o.Total().String(),
		Discount:       o.Redemption().Discount.String(),
		RedeemedPoints: o.Redemption().Points,
		Custom:         o.IsCustom(),
		ScheduledAt:    o.ScheduledAt(),
		CreatedBy:      audit.CreatedBy,
		CreatedAt:      audit.CreatedAt,
		ModifiedBy:     audit.ModifiedBy,
		ModifiedAt:     audit.ModifiedAt,
		Version:        o.Version(),
	}
}

func toOrderDetailsResponse(details queries.GetOrderDetailsQueryResponse) OrderDetailsResponse {
	history := make([]HistoryEntryResponse, 0, len(details.History))
	for _, entry := range details.History {
		history = append(history, HistoryEntryResponse{
			ID:        entry.ID().String(),
			Status:    entry.Status().String(),
			ChangedBy: entry.ChangedBy(),
			ChangedAt: entry.ChangedAt(),
		})
	}
	return OrderDetailsResponse{OrderResponse: toOrderResponse(details.Order), History: history}
}

func toAnalyticsResponse(a queries.GetOrderAnalyticsQueryResponse) AnalyticsResponse {
	return AnalyticsResponse{
		From:              a.From,
		To:                a.To,
		TotalOrders:       a.TotalOrders,
		Revenue:           a.Revenue.String(),
		AverageOrderValue: a.AverageOrderValue.String(),
		ScheduledOrders:   a.ScheduledOrders,
		CustomOrders:      a.CustomOrders,
		ByStatus:          a.ByStatus,
		ByDay:             a.ByDay,
		ScheduledByDay:    a.ScheduledByDay,
		CustomByDay:       a.CustomByDay,
	}
}
