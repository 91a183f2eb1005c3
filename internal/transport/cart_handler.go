package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartResponse is a cart with its unit count
type CartResponse struct {
	Items domain.Cart `json:"items"`
	Count int         `json:"count"`
}

func newCartResponse(cart domain.Cart) CartResponse {
	if cart == nil {
		cart = domain.NewCart()
	}
	return CartResponse{Items: cart, Count: cart.Count()}
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=1000"`
}

// ReplaceCartRequest carries a client's whole cart, product id to quantity
type ReplaceCartRequest struct {
	Items map[string]int `json:"items" validate:"dive,gte=0,lte=1000"`
}

type QuoteRequest struct {
	PromotionCode string `json:"promotion_code"`
}

// CartHandler serves the signed-in user's server side cart
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes mounts the routes. codeLimiter throttles quotes, which evaluate promotion codes.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware, codeLimiter func(http.Handler) http.Handler) {
	if codeLimiter == nil {
		codeLimiter = passthrough
	}

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Put("/", h.Replace)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.SetQuantity)
		r.With(codeLimiter).Post("/quote", h.Quote)
	})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID, req.ProductID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.carts.SetQuantity(r.Context(), userID, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ReplaceCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.carts.Replace(r.Context(), userID, domain.Cart(req.Items))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newCartResponse(nil))
}

// Quote prices the cart so the client can re-check an applied promotion after edits
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	quote, err := h.carts.Quote(r.Context(), userID, req.PromotionCode)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, quote)
}
