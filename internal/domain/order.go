package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusOrderPlaced OrderStatus = "Order Placed"
	StatusArrived     OrderStatus = "Arrived"
	StatusDelivered   OrderStatus = "Delivered"
	StatusCancelled   OrderStatus = "Cancelled"
)

// OrderStatuses returns the four lifecycle states
func OrderStatuses() []OrderStatus {
	return []OrderStatus{StatusOrderPlaced, StatusArrived, StatusDelivered, StatusCancelled}
}

// validTransitions defines allowed state transitions
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusOrderPlaced: {StatusArrived, StatusDelivered, StatusCancelled},
	StatusArrived:     {StatusDelivered, StatusCancelled},
	StatusDelivered:   {}, // terminal state
	StatusCancelled:   {}, // terminal state
}

// ParseOrderStatus validates s against the fixed set of statuses
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validTransitions[status]; !ok {
		return "", ErrInvalidOrderStatus.withMessage("invalid order status %q", s)
	}
	return status, nil
}

// Terminal reports whether no further transitions are possible from s
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns nil when from -> to is allowed, otherwise the error describing why not
func CheckTransition(from, to OrderStatus) error {
	if _, ok := validTransitions[to]; !ok {
		return ErrInvalidOrderStatus.withMessage("invalid order status %q", string(to))
	}
	if CanTransition(from, to) {
		return nil
	}

	switch {
	case from == StatusDelivered && to == StatusCancelled:
		return ErrCannotCancelDelivered
	case from.Terminal():
		return ErrOrderTerminal.withMessage("order is already %s", string(from))
	default:
		return ErrInvalidTransition.withMessage("cannot transition from %s to %s", string(from), string(to))
	}
}

// SourcesFor lists the statuses from which to can be reached
func SourcesFor(to OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, from := range OrderStatuses() {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// OrderItem is one line of an order
type OrderItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// Order is a placed order. Amount is the final payable amount after tax and discount.
type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Items          []OrderItem
	Amount         decimal.Decimal
	AddressID      uuid.UUID
	Status         OrderStatus
	PromotionCode  *string
	DiscountAmount decimal.Decimal
	Date           time.Time
	UpdatedAt      time.Time
}

// OwnedBy reports whether the order was placed by userID
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}
