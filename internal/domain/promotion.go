package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType determines how a promotion's discount value is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a known discount type
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

var hundred = decimal.NewFromInt(100)

// Promotion is a seller-defined discount redeemable with a code
type Promotion struct {
	ID                uuid.UUID
	Code              string
	Name              string
	Description       string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	IsActive          bool
	ApplicableToAll   bool
	UsageLimit        *int // nil means unlimited
	UsedCount         int
	MinPurchaseAmount decimal.Decimal
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
}

// Discount is the outcome of accepting a promotion for an order amount
type Discount struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	DiscountType    DiscountType    `json:"discount_type"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ApplicableToAll bool            `json:"applicable_to_all"`
}

// NormalizeCode returns the canonical (trimmed, upper case) form of a promotion code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the creation-time invariants of a promotion
func (p *Promotion) Validate() error {
	if p.Code == "" {
		return ErrPromotionCodeRequired
	}
	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountValue.IsNegative() || p.DiscountValue.GreaterThan(hundred) {
			return ErrInvalidDiscountValue.withMessage("percentage discount must be between 0 and 100")
		}
	case DiscountFixed:
		if p.DiscountValue.IsNegative() {
			return ErrInvalidDiscountValue.withMessage("fixed discount must not be negative")
		}
	default:
		return ErrInvalidDiscountType
	}
	if !p.StartDate.Before(p.EndDate) {
		return ErrInvalidDateRange
	}
	if p.UsageLimit != nil && *p.UsageLimit < 0 {
		return ErrInvalidDiscountValue.withMessage("usage limit must not be negative")
	}
	if p.MinPurchaseAmount.IsNegative() {
		return ErrInvalidDiscountValue.withMessage("minimum purchase amount must not be negative")
	}
	return nil
}

// Exhausted reports whether the usage limit has been reached
func (p *Promotion) Exhausted() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// Evaluate checks whether the promotion can be applied at time now to an order of the
// given amount and computes the discount. It does not modify p.
func (p *Promotion) Evaluate(amount decimal.NullDecimal, now time.Time) (*Discount, error) {
	if !p.IsActive {
		return nil, ErrPromotionInactive
	}
	if now.Before(p.StartDate) {
		return nil, ErrPromotionNotStarted
	}
	if now.After(p.EndDate) {
		return nil, ErrPromotionExpired
	}
	if p.Exhausted() {
		return nil, ErrPromotionUsageLimit
	}
	if amount.Valid && p.MinPurchaseAmount.IsPositive() && amount.Decimal.LessThan(p.MinPurchaseAmount) {
		return nil, ErrMinimumPurchaseNotMet.withMessage("minimum purchase amount of %s required", p.MinPurchaseAmount.String())
	}

	return &Discount{
		Code:            p.Code,
		Name:            p.Name,
		DiscountType:    p.DiscountType,
		DiscountValue:   p.DiscountValue,
		DiscountAmount:  p.DiscountFor(amount.Decimal),
		ApplicableToAll: p.ApplicableToAll,
	}, nil
}

// DiscountFor computes the discount for an amount without any validity checks.
// Fixed discounts are not clamped to the amount.
func (p *Promotion) DiscountFor(amount decimal.Decimal) decimal.Decimal {
	if p.DiscountType == DiscountPercentage {
		return amount.Mul(p.DiscountValue).Shift(-2)
	}
	return p.DiscountValue
}
