package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ValidatePromotionRequest checks a code, optionally against an order amount
type ValidatePromotionRequest struct {
	Code        string              `json:"code"`
	OrderAmount decimal.NullDecimal `json:"order_amount"`
}

// CreatePromotionRequest is the seller payload for a new promotion
type CreatePromotionRequest struct {
	Code              string          `json:"code" validate:"required,max=50"`
	Name              string          `json:"name" validate:"required,max=200"`
	Description       string          `json:"description"`
	DiscountType      string          `json:"discount_type" validate:"required,discount_type"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	StartDate         time.Time       `json:"start_date" validate:"required"`
	EndDate           time.Time       `json:"end_date" validate:"required"`
	IsActive          *bool           `json:"is_active"`
	ApplicableToAll   *bool           `json:"applicable_to_all"`
	UsageLimit        *int            `json:"usage_limit" validate:"omitempty,gte=0"`
	MinPurchaseAmount decimal.Decimal `json:"min_purchase_amount"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// PromotionResponse is the public view of a promotion
type PromotionResponse struct {
	ID                string              `json:"id"`
	Code              string              `json:"code"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	DiscountType      domain.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal     `json:"discount_value"`
	StartDate         time.Time           `json:"start_date"`
	EndDate           time.Time           `json:"end_date"`
	IsActive          bool                `json:"is_active"`
	ApplicableToAll   bool                `json:"applicable_to_all"`
	UsageLimit        *int                `json:"usage_limit"`
	UsedCount         int                 `json:"used_count"`
	MinPurchaseAmount decimal.Decimal     `json:"min_purchase_amount"`
	CreatedAt         time.Time           `json:"created_at"`
}

func newPromotionResponse(p *domain.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:                p.ID.String(),
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		DiscountType:      p.DiscountType,
		DiscountValue:     p.DiscountValue,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		IsActive:          p.IsActive,
		ApplicableToAll:   p.ApplicableToAll,
		UsageLimit:        p.UsageLimit,
		UsedCount:         p.UsedCount,
		MinPurchaseAmount: p.MinPurchaseAmount,
		CreatedAt:         p.CreatedAt,
	}
}

// PromotionHandler exposes promotion validation and the seller promotion back office
type PromotionHandler struct {
	promotions service.PromotionService
	logger     *zap.Logger
}

func NewPromotionHandler(promotions service.PromotionService, logger *zap.Logger) *PromotionHandler {
	return &PromotionHandler{promotions: promotions, logger: logger}
}

// RegisterRoutes mounts the routes. limiter throttles code validation.
func (h *PromotionHandler) RegisterRoutes(r chi.Router, authMiddleware, sellerOnly, limiter func(http.Handler) http.Handler) {
	if limiter == nil {
		limiter = passthrough
	}

	r.With(authMiddleware, limiter).Post("/api/promotions/validate", h.Validate)

	r.Route("/api/seller/promotions", func(r chi.Router) {
		r.Use(authMiddleware, sellerOnly)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{code}/active", h.SetActive)
	})
}

// Validate handles POST /api/promotions/validate
func (h *PromotionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidatePromotionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	discount, err := h.promotions.Validate(r.Context(), req.Code, req.OrderAmount)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, discount)
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	out := make([]PromotionResponse, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, newPromotionResponse(p))
	}
	middleware.RespondWithSuccess(w, http.StatusOK, out)
}

func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePromotionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	promotion, err := h.promotions.Create(r.Context(), sellerID, service.CreatePromotionInput{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		DiscountType:      domain.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IsActive:          boolOr(req.IsActive, true),
		ApplicableToAll:   boolOr(req.ApplicableToAll, true),
		UsageLimit:        req.UsageLimit,
		MinPurchaseAmount: req.MinPurchaseAmount,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, newPromotionResponse(promotion))
}

func (h *PromotionHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	promotion, err := h.promotions.SetActive(r.Context(), chi.URLParam(r, "code"), *req.IsActive)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newPromotionResponse(promotion))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
