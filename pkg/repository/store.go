package repository

import (
	"context"

	"github.com/example/storefront/pkg/models"
)

// ProductRepository provides catalog access. Stock mutation is atomic: the
// check-then-decrement happens in a single operation so concurrent orders can
// never drive a product's quantity negative.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	SoftDelete(ctx context.Context, id string) error

	// DecrementStock subtracts qty from the product's quantity only if enough
	// stock is available. Returns NotFoundError or InsufficientStockError.
	DecrementStock(ctx context.Context, id string, qty int) error
	// Restock adds qty back to the product's quantity. Returns NotFoundError
	// if the product no longer exists (e.g. soft-deleted since purchase).
	Restock(ctx context.Context, id string, qty int) error
}

// OrderRepository persists order aggregates together with their items.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	SoftDelete(ctx context.Context, id string) error
}

// Store is the persistence gateway. It is constructed once at process start
// and closed at shutdown; Transact runs fn against a store view whose writes
// either all commit or all roll back.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository

	Transact(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
