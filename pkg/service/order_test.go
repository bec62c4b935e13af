package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrderService(store repository.Store) *service.OrderService {
	return service.NewOrderService(
		store,
		nil,
		repository.NopAuditTrail{},
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("50.00"),
	)
}

func seedProduct(t *testing.T, store *repository.MemoryStore, id, name, price string, qty int) {
	t.Helper()
	require.NoError(t, store.Products().Create(context.Background(), &models.Product{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: "test product",
		Quantity:    qty,
		IsAvailable: true,
	}))
}

func placeInput(items ...service.OrderItemInput) service.PlaceOrderInput {
	return service.PlaceOrderInput{
		Items:           items,
		ShippingAddress: "1 Main St",
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "555-0100",
	}
}

func TestPlace_DecrementsStockAndComputesTotals(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 3}))
	require.NoError(t, err)

	// subtotal 59.97, tax 6.00 (rounded from 5.997), shipping 50.00
	assert.True(t, decimal.RequireFromString("59.97").Equal(order.Subtotal), "subtotal = %s", order.Subtotal)
	assert.True(t, decimal.RequireFromString("6.00").Equal(order.Tax), "tax = %s", order.Tax)
	assert.True(t, decimal.RequireFromString("50.00").Equal(order.ShippingCost), "shipping = %s", order.ShippingCost)
	assert.True(t, order.Subtotal.Add(order.Tax).Add(order.ShippingCost).Equal(order.Total), "total = %s", order.Total)
	assert.True(t, decimal.RequireFromString("115.97").Equal(order.Total), "total = %s", order.Total)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Teapot", item.ProductName)
	assert.True(t, decimal.RequireFromString("19.99").Equal(item.UnitPrice))
	assert.True(t, item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Equal(item.Total))

	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, product.Quantity, "stock 5 - 3 = 2")
}

func TestPlace_SnapshotsNameAndPrice(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)

	// catalog edits after placement must not leak into the order
	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	product.Name = "Kettle"
	product.Price = decimal.RequireFromString("99.99")
	require.NoError(t, store.Products().Save(ctx, product))

	stored, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teapot", stored.Items[0].ProductName)
	assert.True(t, decimal.RequireFromString("19.99").Equal(stored.Items[0].UnitPrice))
}

func TestPlace_EmptyItems(t *testing.T) {
	svc := newOrderService(repository.NewMemoryStore())

	_, err := svc.Place(context.Background(), placeInput())
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "order must contain at least one item", validationErr.Msg)
}

func TestPlace_NonPositiveQuantity(t *testing.T) {
	svc := newOrderService(repository.NewMemoryStore())

	_, err := svc.Place(context.Background(), placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 0}))
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestPlace_MissingCustomerFields(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	in := placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1})
	in.ShippingAddress = ""

	_, err := svc.Place(context.Background(), in)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestPlace_UnknownProduct(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newOrderService(store)

	_, err := svc.Place(context.Background(), placeInput(service.OrderItemInput{ProductID: "ghost", Quantity: 1}))
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ID)
}

func TestPlace_InsufficientStockRollsBackEarlierLines(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	seedProduct(t, store, "p-2", "Kettle", "34.50", 1)
	svc := newOrderService(store)

	_, err := svc.Place(ctx, placeInput(
		service.OrderItemInput{ProductID: "p-1", Quantity: 2},
		service.OrderItemInput{ProductID: "p-2", Quantity: 3},
	))

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Kettle", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	// the transaction rolls back the first line's decrement
	p1, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p1.Quantity)

	p2, err := store.Products().GetByID(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, 1, p2.Quantity)

	// no order was persisted
	orders, err := store.Orders().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlace_BillingDefaultsToShipping(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(context.Background(), placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", order.BillingAddress)
}

func TestPlace_OrderNumbersAreUnique(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 100)
	svc := newOrderService(store)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		order, err := svc.Place(context.Background(), placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
		require.NoError(t, err)
		require.False(t, seen[order.OrderNumber], "duplicate order number %s", order.OrderNumber)
		seen[order.OrderNumber] = true
	}
}

func TestPlace_ConcurrentOrdersForLastUnit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 1)
	svc := newOrderService(store)

	const attempts = 2
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *models.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		stockFailures++
	}

	assert.Equal(t, 1, successes, "exactly one order may win the last unit")
	assert.Equal(t, 1, stockFailures)

	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 0, product.Quantity, "stock must never go negative")
}

func TestUpdateStatus_FollowsTransitionTable(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	// skipping states is not allowed
	_, err = svc.UpdateStatus(ctx, order.ID, "delivered")
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// unknown status fails validation
	_, err = svc.UpdateStatus(ctx, order.ID, "refunded")
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// missing order
	_, err = svc.UpdateStatus(ctx, "ghost", "confirmed")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateStatus_CancelledGoesThroughRestock(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 3}))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity, "stock restored by cancellation")
}

func advanceTo(t *testing.T, svc *service.OrderService, id string, statuses ...string) {
	t.Helper()
	for _, st := range statuses {
		_, err := svc.UpdateStatus(context.Background(), id, st)
		require.NoError(t, err)
	}
}

func TestCancel_ShippedOrderRestocks(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	seedProduct(t, store, "p-2", "Kettle", "34.50", 4)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(
		service.OrderItemInput{ProductID: "p-1", Quantity: 2},
		service.OrderItemInput{ProductID: "p-2", Quantity: 4},
	))
	require.NoError(t, err)
	advanceTo(t, svc, order.ID, "confirmed", "processing", "shipped")

	cancelled, err := svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	p1, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p1.Quantity)

	p2, err := store.Products().GetByID(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, 4, p2.Quantity)
}

func TestCancel_DeliveredOrderFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 2}))
	require.NoError(t, err)
	advanceTo(t, svc, order.ID, "confirmed", "processing", "shipped", "delivered")

	_, err = svc.Cancel(ctx, order.ID)
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// stock and status untouched
	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, product.Quantity)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)
}

func TestCancel_AlreadyCancelledFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 2}))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID)
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// a second cancel must not restock twice
	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity)
}

func TestCancel_SkipsRestockForDeletedProduct(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	seedProduct(t, store, "p-2", "Kettle", "34.50", 4)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(
		service.OrderItemInput{ProductID: "p-1", Quantity: 1},
		service.OrderItemInput{ProductID: "p-2", Quantity: 2},
	))
	require.NoError(t, err)

	require.NoError(t, store.Products().SoftDelete(ctx, "p-1"))

	cancelled, err := svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// surviving product restocked, deleted one skipped
	p2, err := store.Products().GetByID(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, 4, p2.Quantity)
}

func TestDelete_SoftDeletesWithoutRestock(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 5)
	svc := newOrderService(store)

	order, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 2}))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, order.ID))

	_, err = svc.Get(ctx, order.ID)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// no restock on delete
	product, err := store.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, product.Quantity)

	err = svc.Delete(ctx, "ghost")
	require.ErrorAs(t, err, &notFound)
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedProduct(t, store, "p-1", "Teapot", "19.99", 10)
	svc := newOrderService(store)

	for i := 0; i < 3; i++ {
		_, err := svc.Place(ctx, placeInput(service.OrderItemInput{ProductID: "p-1", Quantity: 1}))
		require.NoError(t, err)
	}

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		assert.False(t, orders[i-1].CreatedAt.Before(orders[i].CreatedAt))
	}
}
