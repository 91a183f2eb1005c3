package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type mockPromotionRepository struct {
	promotions map[string]*domain.Promotion
}

func newMockPromotionRepository(promotions ...*domain.Promotion) *mockPromotionRepository {
	m := &mockPromotionRepository{promotions: make(map[string]*domain.Promotion)}
	for _, p := range promotions {
		m.promotions[p.Code] = p
	}
	return m
}

func (m *mockPromotionRepository) Create(ctx context.Context, promotion *domain.Promotion) error {
	if _, exists := m.promotions[promotion.Code]; exists {
		return domain.ErrPromotionExists
	}
	m.promotions[promotion.Code] = promotion
	return nil
}

func (m *mockPromotionRepository) FindByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	p, exists := m.promotions[code]
	if !exists {
		return nil, domain.ErrPromotionNotFound
	}
	return p, nil
}

func (m *mockPromotionRepository) List(ctx context.Context) ([]*domain.Promotion, error) {
	out := make([]*domain.Promotion, 0, len(m.promotions))
	for _, p := range m.promotions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockPromotionRepository) SetActive(ctx context.Context, code string, active bool) (*domain.Promotion, error) {
	p, exists := m.promotions[code]
	if !exists {
		return nil, domain.ErrPromotionNotFound
	}
	p.IsActive = active
	return p, nil
}

type mockProductRepository struct {
	products map[string]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	if _, exists := m.products[id]; !exists {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, exists := m.products[id]
	if !exists {
		return nil, domain.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, exists := m.products[id]; exists {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int64, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type mockAddressRepository struct {
	addresses map[uuid.UUID]*domain.Address
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{addresses: make(map[uuid.UUID]*domain.Address)}
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	m.addresses[address.ID] = address
	return nil
}

func (m *mockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	a, exists := m.addresses[id]
	if !exists {
		return nil, domain.ErrAddressNotFound
	}
	return a, nil
}

func (m *mockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockCartRepository struct {
	mu    sync.Mutex
	carts map[uuid.UUID]domain.Cart
	reads int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[uuid.UUID]domain.Cart)}
}

func (m *mockCartRepository) cart(userID uuid.UUID) domain.Cart {
	c, ok := m.carts[userID]
	if !ok {
		c = domain.NewCart()
		m.carts[userID] = c
	}
	return c
}

func (m *mockCartRepository) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.cart(userID).Clone(), nil
}

func (m *mockCartRepository) AddItem(ctx context.Context, userID uuid.UUID, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart(userID).Add(productID), nil
}

func (m *mockCartRepository) SetItem(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart(userID).SetQuantity(productID, quantity)
}

func (m *mockCartRepository) Replace(ctx context.Context, userID uuid.UUID, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = domain.CartFromItems(cart.Lines())
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *mockCartRepository) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// memoryCartCache is an in-process CartCache. failInvalidate makes that many
// Invalidate calls fail before one succeeds.
type memoryCartCache struct {
	mu             sync.Mutex
	entries        map[string]domain.Cart
	generations    map[string]int64
	deletes        int
	failInvalidate int
}

func newMemoryCartCache() *memoryCartCache {
	return &memoryCartCache{
		entries:     make(map[string]domain.Cart),
		generations: make(map[string]int64),
	}
}

func (c *memoryCartCache) Get(ctx context.Context, userID string) (domain.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cart, ok := c.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart.Clone(), nil
}

func (c *memoryCartCache) Generation(ctx context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID], nil
}

func (c *memoryCartCache) SetIfGeneration(ctx context.Context, userID string, gen int64, cart domain.Cart) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != gen {
		return false, nil
	}
	c.entries[userID] = cart.Clone()
	return true, nil
}

func (c *memoryCartCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failInvalidate > 0 {
		c.failInvalidate--
		return errors.New("cache unavailable")
	}
	delete(c.entries, userID)
	c.generations[userID]++
	c.deletes++
	return nil
}

// mockOrderRepository mirrors the database rules of the order repository in memory
type mockOrderRepository struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*domain.Order
	promotions  *mockPromotionRepository
	carts       *mockCartRepository
	transitions []domain.OrderStatus
}

func newMockOrderRepository(promotions *mockPromotionRepository, carts *mockCartRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:     make(map[uuid.UUID]*domain.Order),
		promotions: promotions,
		carts:      carts,
	}
}

func (m *mockOrderRepository) Place(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.PromotionCode != nil {
		p, exists := m.promotions.promotions[*order.PromotionCode]
		if !exists || p.Exhausted() {
			return domain.ErrPromotionUsageLimit
		}
		p.UsedCount++
	}
	copied := *order
	m.orders[order.ID] = &copied
	if m.carts != nil {
		_ = m.carts.Clear(ctx, order.UserID)
	}
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, exists := m.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) ListAll(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if status == nil || o.Status == *status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, status)
	o, exists := m.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	if err := domain.CheckTransition(o.Status, status); err != nil {
		return nil, err
	}
	o.Status = status
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepository) transitionCalls() []domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderStatus(nil), m.transitions...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}
