package transport

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest is the seller payload for creating or replacing a product
type ProductRequest struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	Description    string                 `json:"description" validate:"max=5000"`
	Price          int64                  `json:"price" validate:"gte=0,lte=1000000000000"`
	OfferPrice     int64                  `json:"offer_price" validate:"gte=0,lte=1000000000000"`
	Category       string                 `json:"category" validate:"required,category"`
	Images         []string               `json:"images" validate:"required,min=1,dive,required"`
	Specifications map[string]interface{} `json:"specifications"`
}

func (req ProductRequest) input() (service.ProductInput, error) {
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return service.ProductInput{}, err
	}
	return service.ProductInput{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		OfferPrice:     req.OfferPrice,
		Category:       category,
		Images:         req.Images,
		Specifications: req.Specifications,
	}, nil
}

// CatalogHandler serves product listings, comparison and the seller product back office
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes mounts the public catalog and, behind sellerOnly, the seller product routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware, sellerOnly func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/compare", h.Compare)
		r.Get("/{id}", h.Get)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.Categories)
		r.Get("/{category}/specifications", h.Specifications)
	})

	r.Route("/api/seller/products", func(r chi.Router) {
		r.Use(authMiddleware, sellerOnly)
		r.Get("/", h.ListOwn)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	h.respondWithPage(w, r, filter)
}

// Search handles GET /api/products/search?q=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	filter.Query = strings.TrimSpace(r.URL.Query().Get("q"))
	if filter.Query == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "search query is required")
		return
	}
	h.respondWithPage(w, r, filter)
}

// ListOwn handles GET /api/seller/products
func (h *CatalogHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	filter, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	filter.SellerID = sellerID.String()
	h.respondWithPage(w, r, filter)
}

func (h *CatalogHandler) respondWithPage(w http.ResponseWriter, r *http.Request, filter repository.ProductFilter) {
	page, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, page)
}

func (h *CatalogHandler) filterFromQuery(w http.ResponseWriter, r *http.Request) (repository.ProductFilter, bool) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		SortBy:    q.Get("sort"),
		SortOrder: repository.SortOrderDesc,
		Page:      intQuery(r, "page", 1),
		PageSize:  intQuery(r, "page_size", 20),
	}
	if strings.EqualFold(q.Get("order"), "asc") {
		filter.SortOrder = repository.SortOrderAsc
	}
	if raw := q.Get("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			middleware.RespondWithDomainError(w, h.logger, err)
			return filter, false
		}
		filter.Category = &category
	}
	return filter, true
}

// Get handles GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, product)
}

// Compare handles GET /api/products/compare?ids=a,b
func (h *CatalogHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")

	comparison, err := h.catalog.Compare(r.Context(), ids)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, comparison)
}

// Categories handles GET /api/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithSuccess(w, http.StatusOK, domain.Categories())
}

// Specifications handles GET /api/categories/{category}/specifications
func (h *CatalogHandler) Specifications(w http.ResponseWriter, r *http.Request) {
	fields, err := h.catalog.Schema(chi.URLParam(r, "category"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, fields)
}

// Create handles POST /api/seller/products
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	input, err := req.input()
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), sellerID, input)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, product)
}

// Update handles PUT /api/seller/products/{id}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	input, err := req.input()
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), sellerID, chi.URLParam(r, "id"), input)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, product)
}

// Delete handles DELETE /api/seller/products/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), sellerID, chi.URLParam(r, "id")); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "product deleted")
}
