package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// AddressRepository defines the interface for shipping address data access
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
}

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

const addressColumns = `id, user_id, full_name, phone_number, pincode, area, city, state, created_at`

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		address.ID,
		address.UserID,
		address.FullName,
		address.PhoneNumber,
		address.Pincode,
		address.Area,
		address.City,
		address.State,
		address.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

func (r *addressRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	address := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&address.ID,
		&address.UserID,
		&address.FullName,
		&address.PhoneNumber,
		&address.Pincode,
		&address.Area,
		&address.City,
		&address.State,
		&address.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}

	return address, nil
}

// ListByUser returns a user's addresses, newest first
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]*domain.Address, 0)
	for rows.Next() {
		address := &domain.Address{}
		if err := rows.Scan(
			&address.ID,
			&address.UserID,
			&address.FullName,
			&address.PhoneNumber,
			&address.Pincode,
			&address.Area,
			&address.City,
			&address.State,
			&address.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}
