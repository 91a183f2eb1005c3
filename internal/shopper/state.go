// Package shopper holds the client side state of one shopper: the cart mirrored
// to the server, the device-local wishlist and the promotion applied at checkout.
package shopper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNotSignedIn = errors.New("sign in to change your cart")

// CartSyncer mirrors the local cart to the server
type CartSyncer interface {
	FetchCart(ctx context.Context) (domain.Cart, error)
	SyncCart(ctx context.Context, cart domain.Cart) error
}

// Checkout quotes the server cart and places orders
type Checkout interface {
	Quote(ctx context.Context, promotionCode string) (*service.Quote, error)
	PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (*transport.PlaceOrderResponse, error)
}

// State is safe for concurrent use. Cart changes are applied locally before
// they are synced, and a failed sync leaves the local change in place.
type State struct {
	carts     CartSyncer
	checkout  Checkout
	wishlists WishlistStore
	logger    *zap.Logger

	mu        sync.Mutex
	userID    uuid.UUID
	cart      domain.Cart
	wishlist  domain.Wishlist
	promotion string
	quote     *service.Quote
}

// NewState loads the stored wishlist and starts signed out with an empty cart
func NewState(carts CartSyncer, checkout Checkout, wishlists WishlistStore, logger *zap.Logger) (*State, error) {
	wishlist, err := wishlists.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	return &State{
		carts:     carts,
		checkout:  checkout,
		wishlists: wishlists,
		logger:    logger,
		cart:      domain.NewCart(),
		wishlist:  wishlist,
	}, nil
}

// SignIn adopts the server copy of the user's cart
func (s *State) SignIn(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.cart = cart.Clone()
	s.promotion = ""
	s.quote = nil
	return nil
}

// SignOut drops the cart. The wishlist stays on the device.
func (s *State) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = uuid.Nil
	s.cart = domain.NewCart()
	s.resetCheckout()
}

func (s *State) UserID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != uuid.Nil
}

// AddToCart adds one unit of productID and returns the new quantity
func (s *State) AddToCart(ctx context.Context, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return 0, ErrNotSignedIn
	}

	quantity := s.cart.Add(productID)
	s.resetCheckout()
	return quantity, s.syncLocked(ctx)
}

// SetQuantity sets the quantity of productID; zero removes it
func (s *State) SetQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return ErrNotSignedIn
	}
	if err := s.cart.SetQuantity(productID, quantity); err != nil {
		return err
	}

	s.resetCheckout()
	return s.syncLocked(ctx)
}

func (s *State) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return ErrNotSignedIn
	}

	s.cart.Clear()
	s.resetCheckout()
	return s.syncLocked(ctx)
}

// Cart returns a copy of the local cart
func (s *State) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *State) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *State) syncLocked(ctx context.Context) error {
	if err := s.carts.SyncCart(ctx, s.cart.Clone()); err != nil {
		s.logger.Warn("Cart sync failed, keeping local change",
			zap.String("user_id", s.userID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to sync cart: %w", err)
	}
	return nil
}

// resetCheckout forgets the last quote. The applied code survives and is re-checked by Quote.
func (s *State) resetCheckout() {
	s.quote = nil
	if s.userID == uuid.Nil {
		s.promotion = ""
	}
}

// ToggleWishlist returns true when productID was added
func (s *State) ToggleWishlist(productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.wishlist.Toggle(productID)
	return added, s.saveWishlistLocked()
}

func (s *State) AddToWishlist(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist.Add(productID)
	return s.saveWishlistLocked()
}

func (s *State) RemoveFromWishlist(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist.Remove(productID)
	return s.saveWishlistLocked()
}

func (s *State) ClearWishlist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist.Clear()
	return s.saveWishlistLocked()
}

func (s *State) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(productID)
}

func (s *State) WishlistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Count()
}

// Wishlist returns the wishlisted product ids in sorted order
func (s *State) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.IDs()
}

func (s *State) saveWishlistLocked() error {
	if err := s.wishlists.Save(s.wishlist); err != nil {
		s.logger.Warn("Wishlist save failed, keeping local change", zap.Error(err))
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

// ApplyPromotion quotes the cart with code and remembers the code when the server accepts it
func (s *State) ApplyPromotion(ctx context.Context, code string) (*service.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return nil, ErrNotSignedIn
	}

	quote, err := s.checkout.Quote(ctx, code)
	if err != nil {
		return nil, err
	}

	s.promotion = ""
	if quote.Promotion != nil {
		s.promotion = quote.Promotion.Code
	}
	s.quote = quote
	return quote, nil
}

// RemovePromotion drops the applied code
func (s *State) RemovePromotion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotion = ""
	s.quote = nil
}

func (s *State) AppliedPromotion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promotion
}

// Quote prices the current cart with the applied promotion. When the server no
// longer accepts the code (for example the cart fell under its minimum purchase)
// the code is dropped and the cart is quoted without it.
func (s *State) Quote(ctx context.Context) (*service.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return nil, ErrNotSignedIn
	}

	quote, err := s.checkout.Quote(ctx, s.promotion)
	var apiErr *APIError
	if err != nil && s.promotion != "" && errors.As(err, &apiErr) && apiErr.Status < 500 {
		s.logger.Info("Applied promotion no longer valid, removing it",
			zap.String("code", s.promotion),
			zap.String("reason", apiErr.Code),
		)
		s.promotion = ""
		quote, err = s.checkout.Quote(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	s.quote = quote
	return quote, nil
}

// PlaceOrder submits the local cart and clears it once the order is accepted.
// The server empties its copy of the cart in the same transaction.
func (s *State) PlaceOrder(ctx context.Context, addressID uuid.UUID) (*transport.PlaceOrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == uuid.Nil {
		return nil, ErrNotSignedIn
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	req := transport.PlaceOrderRequest{
		AddressID:     addressID.String(),
		Items:         make([]transport.OrderItemRequest, 0, len(lines)),
		PromotionCode: s.promotion,
	}
	for _, line := range lines {
		req.Items = append(req.Items, transport.OrderItemRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	if s.quote != nil {
		req.DiscountAmount = decimal.NewNullDecimal(s.quote.Discount)
		req.FinalAmount = decimal.NewNullDecimal(s.quote.Final)
	}

	placed, err := s.checkout.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	s.cart.Clear()
	s.promotion = ""
	s.quote = nil
	return placed, nil
}
