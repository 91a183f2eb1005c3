package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(userID, addressID uuid.UUID, code *string) *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		AddressID: addressID,
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		Amount:         decimal.RequireFromString("229.5"),
		Status:         domain.StatusOrderPlaced,
		PromotionCode:  code,
		DiscountAmount: decimal.RequireFromString("25.5"),
		Date:           now,
		UpdatedAt:      now,
	}
}

func TestOrderRepository_PlaceRedeemsPromotionAndClearsCart(t *testing.T) {
	orders := NewOrderRepository(testDB)
	promotions := NewPromotionRepository(testDB)
	carts := NewCartRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	address := createTestAddress(t, buyer.ID)
	seller := createTestUser(t, domain.RoleSeller)

	promotion := newTestPromotion(seller.ID, intPtr(3))
	require.NoError(t, promotions.Create(ctx, promotion))

	_, err := carts.AddItem(ctx, buyer.ID, "p1")
	require.NoError(t, err)

	order := newTestOrder(buyer.ID, address.ID, &promotion.Code)
	require.NoError(t, orders.Place(ctx, order))

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("229.5")))
	assert.True(t, stored.DiscountAmount.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, domain.StatusOrderPlaced, stored.Status)
	require.NotNil(t, stored.PromotionCode)
	assert.Equal(t, promotion.Code, *stored.PromotionCode)
	assert.Equal(t, order.Items, stored.Items)

	redeemed, err := promotions.FindByCode(ctx, promotion.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsedCount)

	cart, err := carts.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestOrderRepository_PlaceRespectsUsageLimitUnderConcurrency(t *testing.T) {
	orders := NewOrderRepository(testDB)
	promotions := NewPromotionRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	address := createTestAddress(t, buyer.ID)
	seller := createTestUser(t, domain.RoleSeller)

	promotion := newTestPromotion(seller.ID, intPtr(2))
	require.NoError(t, promotions.Create(ctx, promotion))

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := orders.Place(ctx, newTestOrder(buyer.ID, address.ID, &promotion.Code))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case assert.ErrorIs(t, err, domain.ErrPromotionUsageLimit):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, placed)
	assert.Equal(t, attempts-2, rejected)

	redeemed, err := promotions.FindByCode(ctx, promotion.Code)
	require.NoError(t, err)
	assert.Equal(t, 2, redeemed.UsedCount)

	list, err := orders.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestOrderRepository_FailedPlaceRollsBack(t *testing.T) {
	orders := NewOrderRepository(testDB)
	promotions := NewPromotionRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	seller := createTestUser(t, domain.RoleSeller)

	promotion := newTestPromotion(seller.ID, intPtr(1))
	require.NoError(t, promotions.Create(ctx, promotion))

	// unknown address violates the foreign key after the promotion was redeemed
	order := newTestOrder(buyer.ID, uuid.New(), &promotion.Code)
	require.Error(t, orders.Place(ctx, order))

	redeemed, err := promotions.FindByCode(ctx, promotion.Code)
	require.NoError(t, err)
	assert.Equal(t, 0, redeemed.UsedCount)

	_, err = orders.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	orders := NewOrderRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	address := createTestAddress(t, buyer.ID)

	order := newTestOrder(buyer.ID, address.ID, nil)
	require.NoError(t, orders.Place(ctx, order))

	updated, err := orders.TransitionStatus(ctx, order.ID, domain.StatusArrived)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArrived, updated.Status)
	assert.Len(t, updated.Items, 2)

	updated, err = orders.TransitionStatus(ctx, order.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, updated.Status)

	_, err = orders.TransitionStatus(ctx, order.ID, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrCannotCancelDelivered)

	_, err = orders.TransitionStatus(ctx, order.ID, domain.StatusArrived)
	assert.ErrorIs(t, err, domain.ErrOrderTerminal)

	_, err = orders.TransitionStatus(ctx, uuid.New(), domain.StatusArrived)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)
}

func TestOrderRepository_ConcurrentCancelAndDeliver(t *testing.T) {
	orders := NewOrderRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	address := createTestAddress(t, buyer.ID)

	order := newTestOrder(buyer.ID, address.ID, nil)
	require.NoError(t, orders.Place(ctx, order))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, status := range []domain.OrderStatus{domain.StatusCancelled, domain.StatusDelivered} {
		wg.Add(1)
		go func(i int, status domain.OrderStatus) {
			defer wg.Done()
			_, errs[i] = orders.TransitionStatus(ctx, order.ID, status)
		}(i, status)
	}
	wg.Wait()

	// exactly one update wins and the loser sees a terminal order
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.Terminal())
}

func TestOrderRepository_ListAllFiltersByStatus(t *testing.T) {
	orders := NewOrderRepository(testDB)
	ctx := context.Background()

	buyer := createTestUser(t, domain.RoleUser)
	address := createTestAddress(t, buyer.ID)

	placed := newTestOrder(buyer.ID, address.ID, nil)
	cancelled := newTestOrder(buyer.ID, address.ID, nil)
	require.NoError(t, orders.Place(ctx, placed))
	require.NoError(t, orders.Place(ctx, cancelled))
	_, err := orders.TransitionStatus(ctx, cancelled.ID, domain.StatusCancelled)
	require.NoError(t, err)

	status := domain.StatusCancelled
	list, err := orders.ListAll(ctx, &status)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool)
	for _, o := range list {
		assert.Equal(t, domain.StatusCancelled, o.Status)
		ids[o.ID] = true
	}
	assert.True(t, ids[cancelled.ID])
	assert.False(t, ids[placed.ID])

	all, err := orders.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}
