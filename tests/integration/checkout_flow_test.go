package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	cartapp "github.com/farmtohome/backend/internal/application/cart"
	orderapp "github.com/farmtohome/backend/internal/application/order"
	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/farmtohome/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv wires the real repositories and services against a migrated
// PostgreSQL container, with the production pricing policy.
type testEnv struct {
	db       *TestDB
	users    *persistence.GormUserRepository
	products *persistence.GormProductRepository
	carts    *persistence.GormCartRepository
	orders   *persistence.GormOrderRepository

	cartService     *cartapp.CartService
	checkoutService *orderapp.CheckoutService
	orderService    *orderapp.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tdb := NewTestDB(t)
	tdb.CleanTables()

	users := persistence.NewGormUserRepository(tdb.DB)
	products := persistence.NewGormProductRepository(tdb.DB)
	carts := persistence.NewGormCartRepository(tdb.DB)
	orders := persistence.NewGormOrderRepository(tdb.DB)
	checkout := persistence.NewGormCheckoutRepository(tdb.DB)

	pricing := orderapp.PricingPolicy{
		DeliveryCharge: valueobject.RupeesFromString("50"),
		TaxRatePercent: decimal.NewFromInt(5),
	}

	return &testEnv{
		db:              tdb,
		users:           users,
		products:        products,
		carts:           carts,
		orders:          orders,
		cartService:     cartapp.NewCartService(carts, products),
		checkoutService: orderapp.NewCheckoutService(carts, products, checkout, pricing),
		orderService:    orderapp.NewOrderService(orders, checkout, 7*24*time.Hour),
	}
}

func (env *testEnv) seedUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()

	u, err := identity.NewUser(gofakeit.Name(), gofakeit.Email(), "+919876543210", "not-a-real-hash", role)
	require.NoError(t, err)
	require.NoError(t, env.users.Save(context.Background(), u))
	return u
}

func (env *testEnv) seedProduct(t *testing.T, farmerID uuid.UUID, price string, stock int) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(farmerID, gofakeit.Vegetable(), gofakeit.Sentence(6),
		catalog.CategoryVegetables, catalog.UnitKg, valueobject.RupeesFromString(price), stock)
	require.NoError(t, err)
	p.Approve()
	p.ClearDomainEvents()
	require.NoError(t, env.products.Save(context.Background(), p))
	return p
}

func (env *testEnv) addToCart(t *testing.T, customerID, productID uuid.UUID, quantity int) {
	t.Helper()

	_, err := env.cartService.AddItem(context.Background(), customerID, cartapp.AddItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	require.NoError(t, err)
}

func (env *testEnv) reloadStock(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	p, err := env.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func placeOrderRequest() orderapp.PlaceOrderRequest {
	return orderapp.PlaceOrderRequest{
		Address: orderapp.AddressInput{
			FullName: gofakeit.Name(),
			Phone:    "+919812345678",
			Street:   gofakeit.Street(),
			City:     "Pune",
			State:    "Maharashtra",
			Pincode:  "411001",
		},
		PaymentMethod: string(order.PaymentCOD),
	}
}

func (env *testEnv) deliverOrder(t *testing.T, farmer orderapp.Actor, orderID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	for _, status := range []string{"accepted", "processing", "shipped", "delivered"} {
		_, err := env.orderService.UpdateStatus(ctx, farmer, orderID, orderapp.StatusUpdateRequest{Status: status})
		require.NoError(t, err, "transition to %s", status)
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	customer := env.seedUser(t, identity.RoleCustomer)
	tomatoes := env.seedProduct(t, farmer.ID, "40", 10)
	spinach := env.seedProduct(t, farmer.ID, "25", 5)

	env.addToCart(t, customer.ID, tomatoes.ID, 3)
	env.addToCart(t, customer.ID, spinach.ID, 2)

	resp, err := env.checkoutService.PlaceOrder(ctx, customer.ID, placeOrderRequest())
	require.NoError(t, err)

	// subtotal 3*40 + 2*25 = 170, delivery 50, tax 5% of 170 = 8.50
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("170")), "subtotal %s", resp.Subtotal)
	assert.True(t, resp.DeliveryCharge.Equal(decimal.RequireFromString("50")), "delivery %s", resp.DeliveryCharge)
	assert.True(t, resp.Tax.Equal(decimal.RequireFromString("8.5")), "tax %s", resp.Tax)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("228.5")), "total %s", resp.Total)
	assert.Equal(t, string(order.StatusPending), resp.Status)
	require.Len(t, resp.StatusHistory, 1)
	assert.Equal(t, string(order.StatusPending), resp.StatusHistory[0].Status)

	// Stock decremented inside the checkout transaction
	assert.Equal(t, 7, env.reloadStock(t, tomatoes.ID))
	assert.Equal(t, 3, env.reloadStock(t, spinach.ID))

	// Cart emptied by the same transaction
	cartResp, err := env.cartService.GetCart(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, cartResp.Items)

	// Order is visible to its owner with full line snapshots
	found, err := env.orderService.GetByID(ctx, orderapp.Actor{ID: customer.ID, Role: identity.RoleCustomer}, resp.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
}

func TestCheckout_SecondCustomerSeesInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	first := env.seedUser(t, identity.RoleCustomer)
	second := env.seedUser(t, identity.RoleCustomer)
	lastUnit := env.seedProduct(t, farmer.ID, "60", 1)

	env.addToCart(t, first.ID, lastUnit.ID, 1)
	env.addToCart(t, second.ID, lastUnit.ID, 1)

	_, err := env.checkoutService.PlaceOrder(ctx, first.ID, placeOrderRequest())
	require.NoError(t, err)

	_, err = env.checkoutService.PlaceOrder(ctx, second.ID, placeOrderRequest())
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)

	// The loser keeps their cart and the stock stays at zero
	assert.Equal(t, 0, env.reloadStock(t, lastUnit.ID))
	cartResp, err := env.cartService.GetCart(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, cartResp.Items, 1)
}

func TestCheckout_ConcurrentCustomersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	lastUnit := env.seedProduct(t, farmer.ID, "80", 1)

	customers := make([]*identity.User, 4)
	for i := range customers {
		customers[i] = env.seedUser(t, identity.RoleCustomer)
		env.addToCart(t, customers[i].ID, lastUnit.ID, 1)
	}

	var wg sync.WaitGroup
	results := make(chan error, len(customers))
	for _, c := range customers {
		wg.Add(1)
		go func(customerID uuid.UUID) {
			defer wg.Done()
			_, err := env.checkoutService.PlaceOrder(ctx, customerID, placeOrderRequest())
			results <- err
		}(c.ID)
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	}

	assert.Equal(t, 1, succeeded, "exactly one checkout should win the last unit")
	assert.Equal(t, len(customers)-1, failed)
	assert.Equal(t, 0, env.reloadStock(t, lastUnit.ID))
}

func TestCancel_RestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	customer := env.seedUser(t, identity.RoleCustomer)
	product := env.seedProduct(t, farmer.ID, "30", 10)

	env.addToCart(t, customer.ID, product.ID, 4)
	placed, err := env.checkoutService.PlaceOrder(ctx, customer.ID, placeOrderRequest())
	require.NoError(t, err)
	require.Equal(t, 6, env.reloadStock(t, product.ID))

	actor := orderapp.Actor{ID: customer.ID, Role: identity.RoleCustomer}
	cancelled, err := env.orderService.Cancel(ctx, actor, placed.ID, orderapp.CancelOrderRequest{Reason: "Ordered by mistake"})
	require.NoError(t, err)

	assert.Equal(t, string(order.StatusCancelled), cancelled.Status)
	assert.Equal(t, 10, env.reloadStock(t, product.ID))

	// History is append-only: pending then cancelled
	found, err := env.orderService.GetByID(ctx, actor, placed.ID)
	require.NoError(t, err)
	require.Len(t, found.StatusHistory, 2)
	assert.Equal(t, string(order.StatusPending), found.StatusHistory[0].Status)
	assert.Equal(t, string(order.StatusCancelled), found.StatusHistory[1].Status)
}

func TestCancel_NotAllowedAfterProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	customer := env.seedUser(t, identity.RoleCustomer)
	product := env.seedProduct(t, farmer.ID, "30", 5)

	env.addToCart(t, customer.ID, product.ID, 1)
	placed, err := env.checkoutService.PlaceOrder(ctx, customer.ID, placeOrderRequest())
	require.NoError(t, err)

	farmerActor := orderapp.Actor{ID: farmer.ID, Role: identity.RoleFarmer}
	_, err = env.orderService.UpdateStatus(ctx, farmerActor, placed.ID, orderapp.StatusUpdateRequest{Status: "accepted"})
	require.NoError(t, err)
	_, err = env.orderService.UpdateStatus(ctx, farmerActor, placed.ID, orderapp.StatusUpdateRequest{Status: "processing"})
	require.NoError(t, err)

	customerActor := orderapp.Actor{ID: customer.ID, Role: identity.RoleCustomer}
	_, err = env.orderService.Cancel(ctx, customerActor, placed.ID, orderapp.CancelOrderRequest{})
	require.Error(t, err)
	assert.Equal(t, 4, env.reloadStock(t, product.ID))
}

func TestReturn_WithinWindowAndResolved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	customer := env.seedUser(t, identity.RoleCustomer)
	admin := env.seedUser(t, identity.RoleAdmin)
	product := env.seedProduct(t, farmer.ID, "55", 8)

	env.addToCart(t, customer.ID, product.ID, 2)
	placed, err := env.checkoutService.PlaceOrder(ctx, customer.ID, placeOrderRequest())
	require.NoError(t, err)

	farmerActor := orderapp.Actor{ID: farmer.ID, Role: identity.RoleFarmer}
	adminActor := orderapp.Actor{ID: admin.ID, Role: identity.RoleAdmin}
	env.deliverOrder(t, farmerActor, placed.ID)

	customerActor := orderapp.Actor{ID: customer.ID, Role: identity.RoleCustomer}
	returned, err := env.orderService.RequestReturn(ctx, customerActor, placed.ID,
		orderapp.ReturnRequestInput{Reason: "Produce arrived spoiled"})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusReturnRequested), returned.Status)

	resolved, err := env.orderService.ResolveReturn(ctx, adminActor, placed.ID, orderapp.ResolveReturnRequest{
		Note:         "Refund approved",
		RefundAmount: decimal.RequireFromString("110"),
		RefundMethod: "original",
	})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusResolved), resolved.Status)
	require.NotNil(t, resolved.RefundAmount)
	assert.True(t, resolved.RefundAmount.Equal(decimal.RequireFromString("110")))
}

func TestReturn_RejectedAfterWindowExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	farmer := env.seedUser(t, identity.RoleFarmer)
	customer := env.seedUser(t, identity.RoleCustomer)
	product := env.seedProduct(t, farmer.ID, "55", 8)

	env.addToCart(t, customer.ID, product.ID, 1)
	placed, err := env.checkoutService.PlaceOrder(ctx, customer.ID, placeOrderRequest())
	require.NoError(t, err)

	farmerActor := orderapp.Actor{ID: farmer.ID, Role: identity.RoleFarmer}
	env.deliverOrder(t, farmerActor, placed.ID)

	// Backdate delivery past the 7 day window
	err = env.db.DB.Exec(`UPDATE orders SET delivered_at = now() - interval '8 days' WHERE id = ?`, placed.ID).Error
	require.NoError(t, err)

	customerActor := orderapp.Actor{ID: customer.ID, Role: identity.RoleCustomer}
	_, err = env.orderService.RequestReturn(ctx, customerActor, placed.ID,
		orderapp.ReturnRequestInput{Reason: "Changed my mind"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrReturnWindowExpired) || isCode(err, "RETURN_WINDOW_EXPIRED"))
}

func isCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
