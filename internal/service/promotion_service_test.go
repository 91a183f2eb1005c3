package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var promoNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestPromotionService(promotions ...*domain.Promotion) (*promotionService, *mockPromotionRepository) {
	repo := newMockPromotionRepository(promotions...)
	svc := NewPromotionService(repo, zap.NewNop()).(*promotionService)
	svc.now = func() time.Time { return promoNow }
	return svc, repo
}

func activePromotion(code string, discountType domain.DiscountType, value int64) *domain.Promotion {
	return &domain.Promotion{
		ID:            uuid.New(),
		Code:          code,
		Name:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.NewFromInt(value),
		StartDate:     promoNow.Add(-24 * time.Hour),
		EndDate:       promoNow.Add(24 * time.Hour),
		IsActive:      true,
		CreatedAt:     promoNow.Add(-48 * time.Hour),
	}
}

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestPromotionService_ValidateNormalizesCode(t *testing.T) {
	svc, _ := newTestPromotionService(activePromotion("SAVE10", domain.DiscountPercentage, 10))

	discount, err := svc.Validate(context.Background(), "  save10 ", amount(255))
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", discount.Code)
	assert.True(t, decimal.RequireFromString("25.5").Equal(discount.DiscountAmount))
}

func TestPromotionService_ValidateRejections(t *testing.T) {
	inactive := activePromotion("OFF", domain.DiscountFixed, 5)
	inactive.IsActive = false
	future := activePromotion("SOON", domain.DiscountFixed, 5)
	future.StartDate = promoNow.Add(time.Hour)
	future.EndDate = promoNow.Add(2 * time.Hour)
	past := activePromotion("GONE", domain.DiscountFixed, 5)
	past.StartDate = promoNow.Add(-2 * time.Hour)
	past.EndDate = promoNow.Add(-time.Hour)
	used := activePromotion("USED", domain.DiscountFixed, 5)
	limit := 3
	used.UsageLimit = &limit
	used.UsedCount = 3
	minimum := activePromotion("BIG", domain.DiscountFixed, 5)
	minimum.MinPurchaseAmount = decimal.NewFromInt(500)

	svc, _ := newTestPromotionService(inactive, future, past, used, minimum)

	tests := []struct {
		name string
		code string
		want *domain.Error
	}{
		{"missing code", "   ", domain.ErrPromotionCodeRequired},
		{"unknown code", "NOPE", domain.ErrPromotionNotFound},
		{"inactive", "off", domain.ErrPromotionInactive},
		{"not started", "soon", domain.ErrPromotionNotStarted},
		{"expired", "gone", domain.ErrPromotionExpired},
		{"usage limit", "used", domain.ErrPromotionUsageLimit},
		{"minimum purchase", "big", domain.ErrMinimumPurchaseNotMet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(context.Background(), tt.code, amount(100))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPromotionService_MinimumIgnoredWithoutAmount(t *testing.T) {
	p := activePromotion("BIG", domain.DiscountFixed, 5)
	p.MinPurchaseAmount = decimal.NewFromInt(500)
	svc, _ := newTestPromotionService(p)

	discount, err := svc.Validate(context.Background(), "BIG", decimal.NullDecimal{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(discount.DiscountAmount))
}

// Property: validating a promotion never consumes a use and always returns the same result
func TestProperty_ValidateHasNoSideEffects(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated validation is stable and leaves usedCount unchanged", prop.ForAll(
		func(value int64, orderAmount int64, repeats int) bool {
			p := activePromotion("REPEAT", domain.DiscountPercentage, value)
			limit := 1
			p.UsageLimit = &limit
			svc, repo := newTestPromotionService(p)

			first, err := svc.Validate(context.Background(), "REPEAT", amount(orderAmount))
			if err != nil {
				return false
			}
			for i := 0; i < repeats; i++ {
				again, err := svc.Validate(context.Background(), "repeat", amount(orderAmount))
				if err != nil || !again.DiscountAmount.Equal(first.DiscountAmount) {
					return false
				}
			}
			return repo.promotions["REPEAT"].UsedCount == 0
		},
		gen.Int64Range(0, 100),
		gen.Int64Range(0, 100000),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPromotionService_Create(t *testing.T) {
	svc, repo := newTestPromotionService()
	sellerID := uuid.New()

	input := CreatePromotionInput{
		Code:          " spring20 ",
		Name:          "Spring",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		StartDate:     promoNow,
		EndDate:       promoNow.Add(7 * 24 * time.Hour),
		IsActive:      true,
	}

	created, err := svc.Create(context.Background(), sellerID, input)
	require.NoError(t, err)
	assert.Equal(t, "SPRING20", created.Code)
	assert.Equal(t, sellerID, created.CreatedBy)
	assert.Zero(t, created.UsedCount)
	assert.Contains(t, repo.promotions, "SPRING20")

	_, err = svc.Create(context.Background(), sellerID, input)
	assert.ErrorIs(t, err, domain.ErrPromotionExists)
}

func TestPromotionService_CreateValidates(t *testing.T) {
	svc, repo := newTestPromotionService()
	base := CreatePromotionInput{
		Code:          "X",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     promoNow,
		EndDate:       promoNow.Add(time.Hour),
	}

	tooMuch := base
	tooMuch.DiscountValue = decimal.NewFromInt(101)
	_, err := svc.Create(context.Background(), uuid.New(), tooMuch)
	assert.ErrorIs(t, err, domain.ErrInvalidDiscountValue)

	backwards := base
	backwards.EndDate = promoNow.Add(-time.Hour)
	_, err = svc.Create(context.Background(), uuid.New(), backwards)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	noCode := base
	noCode.Code = " "
	_, err = svc.Create(context.Background(), uuid.New(), noCode)
	assert.ErrorIs(t, err, domain.ErrPromotionCodeRequired)

	assert.Empty(t, repo.promotions)
}

func TestPromotionService_SetActiveAndList(t *testing.T) {
	older := activePromotion("OLD", domain.DiscountFixed, 5)
	newer := activePromotion("NEW", domain.DiscountFixed, 5)
	newer.CreatedAt = promoNow
	svc, _ := newTestPromotionService(older, newer)

	updated, err := svc.SetActive(context.Background(), "old", false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.Validate(context.Background(), "OLD", amount(100))
	assert.ErrorIs(t, err, domain.ErrPromotionInactive)

	_, err = svc.SetActive(context.Background(), "MISSING", true)
	assert.ErrorIs(t, err, domain.ErrPromotionNotFound)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "NEW", list[0].Code)
}
