package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PromotionService validates promotion codes for shoppers and manages them for sellers
type PromotionService interface {
	// Validate looks up code and evaluates it against amount. It never changes the promotion.
	Validate(ctx context.Context, code string, amount decimal.NullDecimal) (*domain.Discount, error)
	Create(ctx context.Context, sellerID uuid.UUID, input CreatePromotionInput) (*domain.Promotion, error)
	List(ctx context.Context) ([]*domain.Promotion, error)
	SetActive(ctx context.Context, code string, active bool) (*domain.Promotion, error)
}

// CreatePromotionInput carries the seller supplied fields of a new promotion
type CreatePromotionInput struct {
	Code              string
	Name              string
	Description       string
	DiscountType      domain.DiscountType
	DiscountValue     decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	IsActive          bool
	ApplicableToAll   bool
	UsageLimit        *int
	MinPurchaseAmount decimal.Decimal
}

type promotionService struct {
	promotionRepo repository.PromotionRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewPromotionService creates a new instance of PromotionService
func NewPromotionService(promotionRepo repository.PromotionRepository, logger *zap.Logger) PromotionService {
	return &promotionService{
		promotionRepo: promotionRepo,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *promotionService) Validate(ctx context.Context, code string, amount decimal.NullDecimal) (*domain.Discount, error) {
	promotion, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	discount, err := promotion.Evaluate(amount, s.now())
	if err != nil {
		s.logger.Debug("Promotion rejected",
			zap.String("code", promotion.Code),
			zap.Error(err),
		)
		return nil, err
	}
	return discount, nil
}

// lookup normalizes code and loads the promotion it names
func (s *promotionService) lookup(ctx context.Context, code string) (*domain.Promotion, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrPromotionCodeRequired
	}

	promotion, err := s.promotionRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrPromotionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find promotion: %w", err)
	}
	return promotion, nil
}

func (s *promotionService) Create(ctx context.Context, sellerID uuid.UUID, input CreatePromotionInput) (*domain.Promotion, error) {
	promotion := &domain.Promotion{
		ID:                uuid.New(),
		Code:              domain.NormalizeCode(input.Code),
		Name:              input.Name,
		Description:       input.Description,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		IsActive:          input.IsActive,
		ApplicableToAll:   input.ApplicableToAll,
		UsageLimit:        input.UsageLimit,
		MinPurchaseAmount: input.MinPurchaseAmount,
		CreatedBy:         sellerID,
		CreatedAt:         s.now(),
	}
	if err := promotion.Validate(); err != nil {
		return nil, err
	}

	if err := s.promotionRepo.Create(ctx, promotion); err != nil {
		if errors.Is(err, domain.ErrPromotionExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	s.logger.Info("Promotion created",
		zap.String("code", promotion.Code),
		zap.String("seller_id", sellerID.String()),
	)
	return promotion, nil
}

func (s *promotionService) List(ctx context.Context) ([]*domain.Promotion, error) {
	promotions, err := s.promotionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return promotions, nil
}

func (s *promotionService) SetActive(ctx context.Context, code string, active bool) (*domain.Promotion, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrPromotionCodeRequired
	}

	promotion, err := s.promotionRepo.SetActive(ctx, code, active)
	if err != nil {
		if errors.Is(err, domain.ErrPromotionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	return promotion, nil
}
