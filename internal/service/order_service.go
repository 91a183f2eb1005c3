package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// PlaceOrderInput is what a shopper submits at checkout. DiscountAmount and FinalAmount
// are the client's own figures and only get compared with the server's.
type PlaceOrderInput struct {
	AddressID      uuid.UUID
	Items          []domain.OrderItem
	PromotionCode  string
	DiscountAmount decimal.NullDecimal
	FinalAmount    decimal.NullDecimal
}

// PlacedOrder is a stored order together with the quote it was charged at
type PlacedOrder struct {
	Order *domain.Order
	Quote *Quote
}

// OrderService places orders and drives their lifecycle
type OrderService interface {
	Place(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedOrder, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// ListAll returns every order, newest first. An empty status lists all statuses.
	ListAll(ctx context.Context, status string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, sellerID, orderID uuid.UUID, status string) (*domain.Order, error)
	// Cancel lets the buyer cancel their own order
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	addresses AddressService
	carts     CartService
	quoter    *quoter
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	addresses AddressService,
	carts CartService,
	promotions PromotionService,
	publisher events.Publisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		addresses: addresses,
		carts:     carts,
		quoter:    &quoter{productRepo: productRepo, promotions: promotions},
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderService) Place(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedOrder, error) {
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}
	items := domain.CartFromItems(input.Items).Lines()
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	if _, err := s.addresses.Owned(ctx, userID, input.AddressID); err != nil {
		return nil, err
	}

	code := domain.NormalizeCode(input.PromotionCode)
	quote, err := s.quoter.quote(ctx, items, code)
	if err != nil {
		return nil, err
	}
	if len(quote.Unresolved) > 0 {
		s.logger.Warn("Order contains unknown products",
			zap.String("user_id", userID.String()),
			zap.Strings("product_ids", quote.Unresolved),
		)
	}
	s.checkClientFigures(userID, input, quote)

	now := s.now()
	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		Amount:         quote.Final,
		AddressID:      input.AddressID,
		Status:         domain.StatusOrderPlaced,
		DiscountAmount: quote.Discount,
		Date:           now,
		UpdatedAt:      now,
	}
	if quote.Promotion != nil {
		order.PromotionCode = &quote.Promotion.Code
	}

	if err := s.orderRepo.Place(ctx, order); err != nil {
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	s.carts.Invalidate(ctx, userID)

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("amount", order.Amount.String()),
	)
	s.publish(ctx, events.NewOrderPlaced(order))

	return &PlacedOrder{Order: order, Quote: quote}, nil
}

// checkClientFigures logs when the client computed a different discount or total.
// The server figures are always the ones charged.
func (s *orderService) checkClientFigures(userID uuid.UUID, input PlaceOrderInput, quote *Quote) {
	if input.DiscountAmount.Valid && !input.DiscountAmount.Decimal.Equal(quote.Discount) {
		s.logger.Warn("Client discount differs from server discount",
			zap.String("user_id", userID.String()),
			zap.String("client", input.DiscountAmount.Decimal.String()),
			zap.String("server", quote.Discount.String()),
		)
	}
	if input.FinalAmount.Valid && !input.FinalAmount.Decimal.Equal(quote.Final) {
		s.logger.Warn("Client amount differs from server amount",
			zap.String("user_id", userID.String()),
			zap.String("client", input.FinalAmount.Decimal.String()),
			zap.String("server", quote.Final.String()),
		)
	}
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context, status string) ([]*domain.Order, error) {
	var filter *domain.OrderStatus
	if status != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}

	orders, err := s.orderRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, sellerID, orderID uuid.UUID, status string) (*domain.Order, error) {
	if orderID == uuid.Nil {
		return nil, domain.ErrOrderIDRequired
	}
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, orderID, target)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(target)),
		zap.String("seller_id", sellerID.String()),
	)
	s.publish(ctx, events.NewOrderStatusChanged(order, sellerID.String()))
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	if orderID == uuid.Nil {
		return nil, domain.ErrOrderIDRequired
	}

	existing, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if !existing.OwnedBy(userID) {
		return nil, domain.ErrNotOrderOwner
	}

	order, err := s.transition(ctx, orderID, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled by buyer",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)
	s.publish(ctx, events.NewOrderStatusChanged(order, userID.String()))
	return order, nil
}

func (s *orderService) transition(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orderRepo.TransitionStatus(ctx, orderID, target)
	if err != nil {
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}

// publish sends an event after the change is committed, detached from the
// request so a client hanging up does not drop it. Failures are logged only:
// the order is already stored.
func (s *orderService) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", event.EventType()),
			zap.String("order_id", event.Key()),
			zap.Error(err),
		)
	}
}
