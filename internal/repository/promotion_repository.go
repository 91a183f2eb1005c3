package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// PromotionRepository defines the interface for promotion data access
type PromotionRepository interface {
	Create(ctx context.Context, promotion *domain.Promotion) error
	FindByCode(ctx context.Context, code string) (*domain.Promotion, error)
	List(ctx context.Context) ([]*domain.Promotion, error)
	SetActive(ctx context.Context, code string, active bool) (*domain.Promotion, error)
}

type promotionRepository struct {
	db *sql.DB
}

// NewPromotionRepository creates a new instance of PromotionRepository
func NewPromotionRepository(db *sql.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

const promotionColumns = `id, code, name, description, discount_type, discount_value, start_date, end_date,
	is_active, applicable_to_all, usage_limit, used_count, min_purchase_amount, created_by, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPromotion(row rowScanner) (*domain.Promotion, error) {
	p := &domain.Promotion{}
	var usageLimit sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Description,
		&p.DiscountType,
		&p.DiscountValue,
		&p.StartDate,
		&p.EndDate,
		&p.IsActive,
		&p.ApplicableToAll,
		&usageLimit,
		&p.UsedCount,
		&p.MinPurchaseAmount,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		p.UsageLimit = &limit
	}
	return p, nil
}

// Create stores a new promotion. Codes are unique.
func (r *promotionRepository) Create(ctx context.Context, promotion *domain.Promotion) error {
	query := `
		INSERT INTO promotions (` + promotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var usageLimit interface{}
	if promotion.UsageLimit != nil {
		usageLimit = *promotion.UsageLimit
	}

	_, err := r.db.ExecContext(ctx, query,
		promotion.ID,
		promotion.Code,
		promotion.Name,
		promotion.Description,
		promotion.DiscountType,
		promotion.DiscountValue,
		promotion.StartDate,
		promotion.EndDate,
		promotion.IsActive,
		promotion.ApplicableToAll,
		usageLimit,
		promotion.UsedCount,
		promotion.MinPurchaseAmount,
		promotion.CreatedBy,
		promotion.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPromotionExists
		}
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	return nil
}

// FindByCode looks up a promotion by its normalized code
func (r *promotionRepository) FindByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE code = $1`

	promotion, err := scanPromotion(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("failed to find promotion: %w", err)
	}

	return promotion, nil
}

func (r *promotionRepository) List(ctx context.Context) ([]*domain.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	promotions := make([]*domain.Promotion, 0)
	for rows.Next() {
		promotion, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, promotion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating promotions: %w", err)
	}

	return promotions, nil
}

// SetActive toggles a promotion and returns its new state
func (r *promotionRepository) SetActive(ctx context.Context, code string, active bool) (*domain.Promotion, error) {
	query := `UPDATE promotions SET is_active = $2 WHERE code = $1 RETURNING ` + promotionColumns

	promotion, err := scanPromotion(r.db.QueryRowContext(ctx, query, code, active))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}

	return promotion, nil
}

// redeemPromotion consumes one use of a promotion inside tx. It fails with
// ErrPromotionUsageLimit when another order took the last use first.
func redeemPromotion(ctx context.Context, tx *sql.Tx, code string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE promotions
		SET used_count = used_count + 1
		WHERE code = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`, code)
	if err != nil {
		return fmt.Errorf("failed to redeem promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrPromotionUsageLimit
	}
	return nil
}
