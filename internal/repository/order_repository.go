package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Place stores the order and its items, consumes one use of the order's
	// promotion and empties the buyer's server cart, all in one transaction.
	Place(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	// TransitionStatus moves the order to status only if it is still in a
	// state that allows it, so concurrent updates cannot both win.
	TransitionStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, amount, address_id, status, promotion_code, discount_amount, date, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var promotionCode sql.NullString

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&o.AddressID,
		&o.Status,
		&promotionCode,
		&o.DiscountAmount,
		&o.Date,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if promotionCode.Valid {
		code := promotionCode.String
		o.PromotionCode = &code
	}
	return o, nil
}

func (r *orderRepository) Place(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if order.PromotionCode != nil {
			if err := redeemPromotion(ctx, tx, *order.PromotionCode); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			order.ID,
			order.UserID,
			order.Amount,
			order.AddressID,
			order.Status,
			order.PromotionCode,
			order.DiscountAmount,
			order.Date,
			order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range order.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
				order.ID, item.ProductID, item.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns a buyer's orders, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY date DESC`, userID)
}

// ListAll returns every order for the back office, optionally filtered by status
func (r *orderRepository) ListAll(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	if status != nil {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY date DESC`, *status)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY date DESC`)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the lines of all given orders with a single query
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		o.Items = make([]domain.OrderItem, 0)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	sources := domain.SourcesFor(status)
	if len(sources) == 0 {
		return nil, r.transitionError(ctx, id, status)
	}

	args := []interface{}{id, status}
	placeholders := make([]string, len(sources))
	for i, s := range sources {
		args = append(args, s)
		placeholders[i] = fmt.Sprintf("$%d", i+3)
	}

	query := `
		UPDATE orders
		SET status = $2
		WHERE id = $1 AND status IN (` + strings.Join(placeholders, ", ") + `)
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.transitionError(ctx, id, status)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// transitionError explains why a conditional status update changed nothing
func (r *orderRepository) transitionError(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	var current domain.OrderStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("failed to read order status: %w", err)
	}

	if err := domain.CheckTransition(current, status); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}
