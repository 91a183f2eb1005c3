package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// Quote is a priced set of lines with the promotion that was applied, if any
type Quote struct {
	pricing.Breakdown
	Promotion *domain.Discount `json:"promotion,omitempty"`
}

// quoter prices lines against current offer prices and applies a promotion code
type quoter struct {
	productRepo repository.ProductRepository
	promotions  PromotionService
}

// quote re-prices items and, when code is set, evaluates the promotion against the
// tax-inclusive subtotal of those items.
func (q *quoter) quote(ctx context.Context, items []domain.OrderItem, code string) (*Quote, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := q.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	prices := domain.IndexPrices(products)

	breakdown, err := pricing.Calculate(items, prices, decimal.Zero)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return &Quote{Breakdown: breakdown}, nil
	}

	subtotal := decimal.NewNullDecimal(decimal.NewFromInt(breakdown.Subtotal))
	discount, err := q.promotions.Validate(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}

	discounted, err := pricing.Calculate(items, prices, discount.DiscountAmount)
	if err != nil {
		return nil, err
	}
	return &Quote{Breakdown: discounted, Promotion: discount}, nil
}
