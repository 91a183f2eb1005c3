package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is a message published to the order topic
type Event interface {
	EventType() string
	// Key partitions the topic so all events of one order stay ordered
	Key() string
}

type OrderPlaced struct {
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Items          []domain.OrderItem `json:"items"`
	Amount         decimal.Decimal    `json:"amount"`
	PromotionCode  *string            `json:"promotion_code,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	PlacedAt       time.Time          `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return TypeOrderPlaced }
func (e OrderPlaced) Key() string       { return e.OrderID }

type OrderStatusChanged struct {
	OrderID   string             `json:"order_id"`
	UserID    string             `json:"user_id"`
	Status    domain.OrderStatus `json:"status"`
	ChangedBy string             `json:"changed_by"`
	ChangedAt time.Time          `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return TypeOrderStatusChanged }
func (e OrderStatusChanged) Key() string       { return e.OrderID }

// NewOrderPlaced builds the event for a freshly stored order
func NewOrderPlaced(o *domain.Order) OrderPlaced {
	return OrderPlaced{
		OrderID:        o.ID.String(),
		UserID:         o.UserID.String(),
		Items:          o.Items,
		Amount:         o.Amount,
		PromotionCode:  o.PromotionCode,
		DiscountAmount: o.DiscountAmount,
		PlacedAt:       o.Date,
	}
}

// NewOrderStatusChanged builds the event for a status update made by actor
func NewOrderStatusChanged(o *domain.Order, actor string) OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:   o.ID.String(),
		UserID:    o.UserID.String(),
		Status:    o.Status,
		ChangedBy: actor,
		ChangedAt: o.UpdatedAt,
	}
}

// Publisher sends domain events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
