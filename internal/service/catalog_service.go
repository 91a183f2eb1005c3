package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxCompareProducts caps how many products the comparison view accepts
const MaxCompareProducts = 4

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// Comparison pairs the compared products with their aligned specification rows
type Comparison struct {
	Products []*domain.Product     `json:"products"`
	Rows     []domain.ComparisonRow `json:"rows"`
}

// ProductInput carries the seller editable fields of a product
type ProductInput struct {
	Name           string
	Description    string
	Price          int64
	OfferPrice     int64
	Category       domain.Category
	Images         []string
	Specifications map[string]interface{}
}

// CatalogService serves the public catalog and the seller product back office
type CatalogService interface {
	List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Compare(ctx context.Context, ids []string) (*Comparison, error)
	Schema(category string) ([]domain.SpecField, error)

	CreateProduct(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, sellerID uuid.UUID, id string, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, sellerID uuid.UUID, id string) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *catalogService) List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Compare loads the requested products in the order given and builds their comparison rows.
// Duplicate ids are collapsed; ids that no longer exist are skipped.
func (s *catalogService) Compare(ctx context.Context, ids []string) (*Comparison, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 || len(ids) > MaxCompareProducts {
		return nil, domain.ErrCompareSelection
	}

	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(found) == 0 {
		return nil, domain.ErrProductNotFound
	}

	byID := make(map[string]*domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]*domain.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}

	return &Comparison{
		Products: products,
		Rows:     domain.ComparisonRows(products...),
	}, nil
}

func (s *catalogService) Schema(category string) ([]domain.SpecField, error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return domain.SchemaFor(c), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*domain.Product, error) {
	now := s.now()
	product := &domain.Product{
		ID:        uuid.NewString(),
		SellerID:  sellerID.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.applyTo(product)

	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("seller_id", product.SellerID),
	)
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, sellerID uuid.UUID, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.ownedProduct(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	input.applyTo(product)
	product.UpdatedAt = s.now()

	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, sellerID uuid.UUID, id string) error {
	if _, err := s.ownedProduct(ctx, sellerID, id); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id),
		zap.String("seller_id", sellerID.String()),
	)
	return nil
}

// ownedProduct loads a product and checks that sellerID listed it
func (s *catalogService) ownedProduct(ctx context.Context, sellerID uuid.UUID, id string) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID.String() {
		return nil, domain.ErrNotProductOwner
	}
	return product, nil
}

func (in ProductInput) applyTo(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.OfferPrice = in.OfferPrice
	p.Category = in.Category
	p.Images = in.Images
	p.Specifications = in.Specifications
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
