package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// AddressInput carries the fields of a new shipping address
type AddressInput struct {
	FullName    string
	PhoneNumber string
	Pincode     string
	Area        string
	City        string
	State       string
}

// AddressService manages a user's shipping addresses
type AddressService interface {
	Add(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	// Owned returns the address only when it belongs to userID
	Owned(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
	now         func() time.Time
}

// NewAddressService creates a new instance of AddressService
func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo, now: time.Now}
}

func (s *addressService) Add(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error) {
	address := &domain.Address{
		ID:          uuid.New(),
		UserID:      userID,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		Pincode:     input.Pincode,
		Area:        input.Area,
		City:        input.City,
		State:       input.State,
		CreatedAt:   s.now(),
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Owned(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	if addressID == uuid.Nil {
		return nil, domain.ErrAddressRequired
	}

	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	// Another user's address is reported as missing
	if address.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	return address, nil
}
