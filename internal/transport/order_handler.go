package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderItemRequest struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=1000"`
}

// PlaceOrderRequest is the checkout payload. Client computed amounts are advisory.
type PlaceOrderRequest struct {
	AddressID      string              `json:"address_id" validate:"required,uuid"`
	Items          []OrderItemRequest  `json:"items" validate:"required,min=1,dive"`
	PromotionCode  string              `json:"promotion_code"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	FinalAmount    decimal.NullDecimal `json:"final_amount"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// OrderResponse is the public view of an order
type OrderResponse struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	Items          []domain.OrderItem `json:"items"`
	Amount         decimal.Decimal    `json:"amount"`
	AddressID      string             `json:"address_id"`
	Status         domain.OrderStatus `json:"status"`
	PromotionCode  *string            `json:"promotion_code,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Date           time.Time          `json:"date"`
}

// PlaceOrderResponse returns the order with the breakdown it was charged at
type PlaceOrderResponse struct {
	Order OrderResponse  `json:"order"`
	Quote *service.Quote `json:"quote"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID.String(),
		UserID:         o.UserID.String(),
		Items:          o.Items,
		Amount:         o.Amount,
		AddressID:      o.AddressID.String(),
		Status:         o.Status,
		PromotionCode:  o.PromotionCode,
		DiscountAmount: o.DiscountAmount,
		Date:           o.Date,
	}
}

func newOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}

// OrderHandler serves checkout, order history and the seller order back office
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes mounts the routes. Placing an order may redeem a promotion
// code, so it shares codeLimiter with code validation.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, sellerOnly, codeLimiter func(http.Handler) http.Handler) {
	if codeLimiter == nil {
		codeLimiter = passthrough
	}

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(codeLimiter).Post("/", h.Place)
		r.Get("/", h.ListMine)
		r.Post("/{id}/cancel", h.Cancel)
	})

	r.Route("/api/seller/orders", func(r chi.Router) {
		r.Use(authMiddleware, sellerOnly)
		r.Get("/", h.ListAll)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
}

// Place handles POST /api/orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	placed, err := h.orders.Place(r.Context(), userID, service.PlaceOrderInput{
		AddressID:      uuid.MustParse(req.AddressID),
		Items:          items,
		PromotionCode:  req.PromotionCode,
		DiscountAmount: req.DiscountAmount,
		FinalAmount:    req.FinalAmount,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithSuccess(w, http.StatusCreated, PlaceOrderResponse{
		Order: newOrderResponse(placed.Order),
		Quote: placed.Quote,
	})
}

// ListMine handles GET /api/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListMine(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newOrderResponses(orders))
}

// Cancel handles POST /api/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, chi.URLParam(r, "id"), "order id")
	if !ok {
		return
	}

	order, err := h.orders.Cancel(r.Context(), userID, orderID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newOrderResponse(order))
}

// ListAll handles GET /api/seller/orders?status=
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newOrderResponses(orders))
}

// UpdateStatus handles PATCH /api/seller/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, chi.URLParam(r, "id"), "order id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), sellerID, orderID, req.Status)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newOrderResponse(order))
}
