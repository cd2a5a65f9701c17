package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-backend/config"
	"shop-backend/internal/models"
	"shop-backend/internal/store"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		TaxRate:        d("0.075"),
		ShippingCost:   d("10.00"),
		DefaultCountry: "NG",
	}
}

// fakeCheckoutStore mimics the store's transactional contract: the
// conditional stock decrement, all-or-nothing commit, and cart clearing.
type fakeCheckoutStore struct {
	mu         sync.Mutex
	stock      map[string]int
	carts      map[string][]models.CartItem
	orders     []*models.Order
	attempts   []string
	collisions int
	failWith   error
}

func newFakeCheckoutStore() *fakeCheckoutStore {
	return &fakeCheckoutStore{
		stock: make(map[string]int),
		carts: make(map[string][]models.CartItem),
	}
}

func (f *fakeCheckoutStore) addProduct(p models.Product) {
	f.stock[p.ID] = p.Stock
}

func (f *fakeCheckoutStore) addCartLine(userID string, p models.Product, qty int) {
	f.carts[userID] = append(f.carts[userID], models.CartItem{
		ID:        fmt.Sprintf("line-%s-%s", userID, p.ID),
		UserID:    userID,
		ProductID: p.ID,
		Quantity:  qty,
		Product:   p,
	})
}

func (f *fakeCheckoutStore) GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]models.CartItem, len(f.carts[userID]))
	copy(lines, f.carts[userID])
	return lines, nil
}

func (f *fakeCheckoutStore) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts = append(f.attempts, order.OrderNumber)

	if f.failWith != nil {
		err := f.failWith
		f.failWith = nil
		return err
	}
	if f.collisions > 0 {
		f.collisions--
		return store.ErrOrderNumberTaken
	}

	// Stage decrements so a mid-loop failure leaves stock untouched,
	// matching the rollback semantics of the real transaction.
	staged := make(map[string]int)
	for _, item := range items {
		available, ok := f.stock[item.ProductID]
		if remaining, alreadyStaged := staged[item.ProductID]; alreadyStaged {
			available = remaining
		}
		if !ok {
			return fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		if available < item.Quantity {
			return &store.InsufficientStockError{
				ProductID: item.ProductID,
				Available: available,
				Requested: item.Quantity,
			}
		}
		staged[item.ProductID] = available - item.Quantity
	}

	for id, remaining := range staged {
		f.stock[id] = remaining
	}

	order.ID = fmt.Sprintf("order-%d", len(f.orders)+1)
	order.CreatedAt = time.Now()
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	f.orders = append(f.orders, order)
	delete(f.carts, order.UserID)
	return nil
}

type fakePlacedPublisher struct {
	events []*models.OrderPlacedEvent
	err    error
}

func (f *fakePlacedPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) InvalidateProduct(ctx context.Context, productID string) error {
	f.invalidated = append(f.invalidated, productID)
	return nil
}

func validShipping() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		ShippingName:    "Ada Obi",
		ShippingEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Road",
		ShippingCity:    "Lagos",
		ShippingZip:     "101001",
		PaymentMethod:   "card",
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	st := newFakeCheckoutStore()
	laptop := models.Product{ID: "p1", Name: "Laptop Stand", SKU: "LS-1", Price: d("99.99"), Stock: 5}
	cable := models.Product{ID: "p2", Name: "USB Cable", SKU: "UC-1", Price: d("50.01"), Stock: 10}
	st.addProduct(laptop)
	st.addProduct(cable)
	st.addCartLine("u1", laptop, 2)
	st.addCartLine("u1", cable, 1)

	publisher := &fakePlacedPublisher{}
	cache := &fakeInvalidator{}
	svc := NewCheckoutService(st, cache, publisher, checkoutConfig())

	order, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(d("249.99")), "subtotal = %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(d("18.75")), "tax = %s", order.Tax)
	assert.True(t, order.ShippingCost.Equal(d("10.00")))
	assert.True(t, order.Total.Equal(d("278.74")), "total = %s", order.Total)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "NG", order.ShippingCountry)
	assert.NotEmpty(t, order.OrderNumber)

	// Stock decremented, cart cleared.
	assert.Equal(t, 3, st.stock["p1"])
	assert.Equal(t, 9, st.stock["p2"])
	assert.Empty(t, st.carts["u1"])

	// Snapshots carry the catalog fields at checkout time.
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Laptop Stand", order.Items[0].ProductName)
	assert.Equal(t, "LS-1", order.Items[0].ProductSKU)
	assert.True(t, order.Items[0].Price.Equal(d("99.99")))
	assert.True(t, order.Items[0].Subtotal.Equal(d("199.98")))

	// Best-effort side work ran.
	assert.ElementsMatch(t, []string{"p1", "p2"}, cache.invalidated)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, order.ID, publisher.events[0].OrderID)
	assert.Equal(t, "278.74", publisher.events[0].Total)
}

func TestPlaceOrderTwiceFailsOnEmptiedCart(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 10}
	st.addProduct(p)
	st.addCartLine("u1", p, 2)
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.NoError(t, err)

	// The commit cleared the cart, so a replayed request finds nothing to
	// buy and changes nothing.
	_, err = svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Len(t, st.orders, 1)
	assert.Equal(t, 8, st.stock["p1"])
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	st := newFakeCheckoutStore()
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, st.orders)
}

func TestPlaceOrderMissingShippingFields(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	cases := []func(*PlaceOrderRequest){
		func(r *PlaceOrderRequest) { r.ShippingName = "" },
		func(r *PlaceOrderRequest) { r.ShippingEmail = " " },
		func(r *PlaceOrderRequest) { r.ShippingAddress = "" },
		func(r *PlaceOrderRequest) { r.ShippingCity = "" },
		func(r *PlaceOrderRequest) { r.ShippingZip = "" },
		func(r *PlaceOrderRequest) { r.PaymentMethod = "" },
	}
	for _, mutate := range cases {
		req := validShipping()
		mutate(req)

		_, err := svc.PlaceOrder(context.Background(), "u1", req)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	}

	// Nothing was committed and the cart survived every rejection.
	assert.Empty(t, st.orders)
	assert.Len(t, st.carts["u1"], 1)
	assert.Equal(t, 3, st.stock["p1"])
}

func TestPlaceOrderNegativeDiscount(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	req := validShipping()
	req.Discount = d("-1.00")

	_, err := svc.PlaceOrder(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestPlaceOrderDiscountReducesTotal(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Desk", Price: d("100.00"), Stock: 2}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	req := validShipping()
	req.Discount = d("15.50")

	order, err := svc.PlaceOrder(context.Background(), "u1", req)
	require.NoError(t, err)

	// 100.00 + 7.50 tax + 10.00 shipping - 15.50 discount
	assert.True(t, order.Total.Equal(d("102.00")), "total = %s", order.Total)
	assert.True(t, order.Discount.Equal(d("15.50")))
}

func TestPlaceOrderInsufficientStockPrecheck(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Chair", Price: d("49.99"), Stock: 1}
	st.addProduct(p)
	st.addCartLine("u1", p, 3)
	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "Chair")
	assert.Contains(t, err.Error(), "available 1")

	assert.Empty(t, st.orders)
	assert.Equal(t, 1, st.stock["p1"])
	assert.Len(t, st.carts["u1"], 1)
}

func TestPlaceOrderStockRacesAtCommit(t *testing.T) {
	st := newFakeCheckoutStore()
	// The cart line was read when 5 were in stock, but another checkout
	// drained the shelf before this one commits.
	p := models.Product{ID: "p1", Name: "Desk Lamp", Price: d("25.00"), Stock: 5}
	st.addProduct(p)
	st.addCartLine("u1", p, 4)
	st.stock["p1"] = 2

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "Desk Lamp")
	assert.Contains(t, err.Error(), "available 2")

	assert.Empty(t, st.orders)
	assert.Equal(t, 2, st.stock["p1"])
	assert.Len(t, st.carts["u1"], 1, "cart must survive a failed checkout")
}

func TestPlaceOrderRollsBackWhenOneLineFails(t *testing.T) {
	st := newFakeCheckoutStore()
	ok := models.Product{ID: "p1", Name: "Pen", Price: d("2.00"), Stock: 10}
	scarce := models.Product{ID: "p2", Name: "Notebook", Price: d("8.00"), Stock: 10}
	st.addProduct(ok)
	st.addProduct(scarce)
	st.addCartLine("u1", ok, 2)
	st.addCartLine("u1", scarce, 5)
	st.stock["p2"] = 1

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// The first line's decrement must not stick.
	assert.Equal(t, 10, st.stock["p1"])
	assert.Equal(t, 1, st.stock["p2"])
	assert.Empty(t, st.orders)
}

func TestPlaceOrderProductVanishedAtCommit(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Ghost", Price: d("9.99"), Stock: 3}
	st.addCartLine("u1", p, 1)
	// Product never registered in stock: deleted between read and commit.

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPlaceOrderStoreFailureStaysInternal(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 2)
	st.failWith = fmt.Errorf("connection reset by peer")

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err),
		"a driver failure must not be classified as a client error")

	// The failed transaction left everything in place.
	assert.Empty(t, st.orders)
	assert.Equal(t, 3, st.stock["p1"])
	assert.Len(t, st.carts["u1"], 1)
	assert.Len(t, st.attempts, 1, "generic failures are not retried")
}

func TestPlaceOrderRetriesOrderNumberCollision(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)
	st.collisions = 1

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	order, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.NoError(t, err)
	require.Len(t, st.attempts, 2)
	assert.Equal(t, st.attempts[1], order.OrderNumber)
}

func TestPlaceOrderGivesUpAfterSecondCollision(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)
	st.collisions = 2

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	_, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Len(t, st.attempts, 2)
}

func TestPlaceOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Original Name", Description: "v1", SKU: "SKU-1", Price: d("20.00"), Stock: 5}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	order, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.NoError(t, err)

	// Catalog edits after checkout must not reach the committed snapshot.
	item := order.Items[0]
	assert.Equal(t, "Original Name", item.ProductName)
	assert.Equal(t, "v1", item.ProductDescription)
	assert.Equal(t, "SKU-1", item.ProductSKU)
	assert.True(t, item.Price.Equal(d("20.00")))
}

func TestPlaceOrderPublishFailureDoesNotFailCheckout(t *testing.T) {
	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Mug", Price: d("5.00"), Stock: 3}
	st.addProduct(p)
	st.addCartLine("u1", p, 1)

	publisher := &fakePlacedPublisher{err: fmt.Errorf("broker down")}
	svc := NewCheckoutService(st, nil, publisher, checkoutConfig())

	order, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Len(t, st.orders, 1)
}

func TestPlaceOrderRandomizedTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := checkoutConfig()

	for i := 0; i < 50; i++ {
		st := newFakeCheckoutStore()
		lineCount := 1 + rng.Intn(10)
		expectedSubtotal := decimal.Zero

		for j := 0; j < lineCount; j++ {
			price := decimal.NewFromInt(int64(1 + rng.Intn(10000))).Div(decimal.NewFromInt(100))
			qty := 1 + rng.Intn(20)
			p := models.Product{
				ID:    fmt.Sprintf("p%d", j),
				Name:  fmt.Sprintf("Product %d", j),
				Price: price,
				Stock: qty,
			}
			st.addProduct(p)
			st.addCartLine("u1", p, qty)
			expectedSubtotal = expectedSubtotal.Add(price.Mul(decimal.NewFromInt(int64(qty))).Round(2))
		}
		expectedSubtotal = expectedSubtotal.Round(2)
		expectedTax := expectedSubtotal.Mul(cfg.TaxRate).Round(2)
		expectedTotal := expectedSubtotal.Add(expectedTax).Add(cfg.ShippingCost).Round(2)

		svc := NewCheckoutService(st, nil, nil, cfg)
		order, err := svc.PlaceOrder(context.Background(), "u1", validShipping())
		require.NoError(t, err)

		assert.True(t, order.Subtotal.Equal(expectedSubtotal),
			"run %d: subtotal %s != %s", i, order.Subtotal, expectedSubtotal)
		assert.True(t, order.Tax.Equal(expectedTax),
			"run %d: tax %s != %s", i, order.Tax, expectedTax)
		assert.True(t, order.Total.Equal(expectedTotal),
			"run %d: total %s != %s", i, order.Total, expectedTotal)

		// All stock drained exactly, never below zero.
		for id, remaining := range st.stock {
			assert.Equal(t, 0, remaining, "run %d: product %s", i, id)
		}
	}
}

func TestPlaceOrderConcurrentCheckoutsNeverOversell(t *testing.T) {
	const stock = 5
	const shoppers = 20

	st := newFakeCheckoutStore()
	p := models.Product{ID: "p1", Name: "Limited Drop", Price: d("59.99"), Stock: stock}
	st.addProduct(p)
	for i := 0; i < shoppers; i++ {
		st.addCartLine(fmt.Sprintf("u%d", i), p, 1)
	}

	svc := NewCheckoutService(st, nil, nil, checkoutConfig())

	var wg sync.WaitGroup
	errs := make([]error, shoppers)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), fmt.Sprintf("u%d", i), validShipping())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, KindConflict, KindOf(err))
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, st.stock["p1"])
	assert.GreaterOrEqual(t, st.stock["p1"], 0, "stock must never go negative")
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{4}$`)

	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := generateOrderNumber(now)
		assert.Regexp(t, pattern, n)
		seen[n] = true
	}
	// Same millisecond, different random suffixes.
	assert.Greater(t, len(seen), 1)
}
