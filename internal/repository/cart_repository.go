package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CartRepository stores the server-side copy of a shopper's cart
type CartRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	// AddItem increments a line by one and returns the new quantity
	AddItem(ctx context.Context, userID uuid.UUID, productID string) (int, error)
	// SetItem sets a line's quantity. Zero removes the line.
	SetItem(ctx context.Context, userID uuid.UUID, productID string, quantity int) error
	// Replace overwrites the whole cart, used when a client syncs its local state
	Replace(ctx context.Context, userID uuid.UUID, cart domain.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	cart := domain.NewCart()
	for rows.Next() {
		var productID string
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart[productID] = quantity
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) AddItem(ctx context.Context, userID uuid.UUID, productID string) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = NOW()
		RETURNING quantity
	`, userID, productID).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to add cart item: %w", err)
	}
	return quantity, nil
}

func (r *cartRepository) SetItem(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	if quantity == 0 {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
		if err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to set cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) Replace(ctx context.Context, userID uuid.UUID, cart domain.Cart) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		for _, line := range cart.Lines() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO cart_items (user_id, product_id, quantity, updated_at) VALUES ($1, $2, $3, NOW())`,
				userID, line.ProductID, line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cart item: %w", err)
			}
		}
		return nil
	})
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
