package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/storefront/pkg/models"
	"gorm.io/gorm"
)

// MemoryStore is a map-backed Store for tests and local runs. A single mutex
// serializes all access; Transact snapshots both maps and restores them when
// fn fails, giving the same all-or-nothing contract as the MySQL store.
type MemoryStore struct {
	mu       sync.Mutex
	inTx     bool
	products map[string]*models.Product
	orders   map[string]*models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
	}
}

// lock is a no-op inside a transaction: the transaction view already holds
// the parent's mutex for its whole extent.
func (s *MemoryStore) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *MemoryStore) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Products() ProductRepository {
	return &memProducts{store: s}
}

func (s *MemoryStore) Orders() OrderRepository {
	return &memOrders{store: s}
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapProducts := make(map[string]*models.Product, len(s.products))
	for id, p := range s.products {
		snapProducts[id] = copyProduct(p)
	}
	snapOrders := make(map[string]*models.Order, len(s.orders))
	for id, o := range s.orders {
		snapOrders[id] = copyOrder(o)
	}

	tx := &MemoryStore{inTx: true, products: s.products, orders: s.orders}
	if err := fn(tx); err != nil {
		s.products = snapProducts
		s.orders = snapOrders
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

type memProducts struct {
	store *MemoryStore
}

func (r *memProducts) Create(ctx context.Context, product *models.Product) error {
	r.store.lock()
	defer r.store.unlock()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.store.products[product.ID] = copyProduct(product)
	return nil
}

func (r *memProducts) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.store.lock()
	defer r.store.unlock()
	return r.get(id)
}

// get assumes the caller holds the store lock.
func (r *memProducts) get(id string) (*models.Product, error) {
	product, ok := r.store.products[id]
	if !ok || product.DeletedAt.Valid {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	return copyProduct(product), nil
}

func (r *memProducts) List(ctx context.Context) ([]models.Product, error) {
	r.store.lock()
	defer r.store.unlock()

	result := make([]models.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if p.DeletedAt.Valid {
			continue
		}
		result = append(result, *copyProduct(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memProducts) Save(ctx context.Context, product *models.Product) error {
	r.store.lock()
	defer r.store.unlock()

	current, ok := r.store.products[product.ID]
	if !ok || current.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "product", ID: product.ID}
	}
	product.UpdatedAt = time.Now().UTC()
	r.store.products[product.ID] = copyProduct(product)
	return nil
}

func (r *memProducts) SoftDelete(ctx context.Context, id string) error {
	r.store.lock()
	defer r.store.unlock()

	product, ok := r.store.products[id]
	if !ok || product.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "product", ID: id}
	}
	product.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	return nil
}

func (r *memProducts) DecrementStock(ctx context.Context, id string, qty int) error {
	r.store.lock()
	defer r.store.unlock()

	product, ok := r.store.products[id]
	if !ok || product.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "product", ID: id}
	}
	if product.Quantity < qty {
		return &models.InsufficientStockError{
			ProductID:   id,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   qty,
		}
	}
	product.Quantity -= qty
	product.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memProducts) Restock(ctx context.Context, id string, qty int) error {
	r.store.lock()
	defer r.store.unlock()

	product, ok := r.store.products[id]
	if !ok || product.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "product", ID: id}
	}
	product.Quantity += qty
	product.UpdatedAt = time.Now().UTC()
	return nil
}

type memOrders struct {
	store *MemoryStore
}

func (r *memOrders) Create(ctx context.Context, order *models.Order) error {
	r.store.lock()
	defer r.store.unlock()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for i := range order.Items {
		if order.Items[i].CreatedAt.IsZero() {
			order.Items[i].CreatedAt = now
		}
		order.Items[i].OrderID = order.ID
	}
	r.store.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *memOrders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.store.lock()
	defer r.store.unlock()

	order, ok := r.store.orders[id]
	if !ok || order.DeletedAt.Valid {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	return r.withProducts(copyOrder(order)), nil
}

func (r *memOrders) List(ctx context.Context) ([]models.Order, error) {
	r.store.lock()
	defer r.store.unlock()

	result := make([]models.Order, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		if o.DeletedAt.Valid {
			continue
		}
		result = append(result, *r.withProducts(copyOrder(o)))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memOrders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	r.store.lock()
	defer r.store.unlock()

	order, ok := r.store.orders[id]
	if !ok || order.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "order", ID: id}
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memOrders) SoftDelete(ctx context.Context, id string) error {
	r.store.lock()
	defer r.store.unlock()

	order, ok := r.store.orders[id]
	if !ok || order.DeletedAt.Valid {
		return &models.NotFoundError{Entity: "order", ID: id}
	}
	order.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	return nil
}

// withProducts resolves item product references the way the MySQL store
// preloads them. Soft-deleted products stay nil.
func (r *memOrders) withProducts(order *models.Order) *models.Order {
	for i := range order.Items {
		if p, ok := r.store.products[order.Items[i].ProductID]; ok && !p.DeletedAt.Valid {
			order.Items[i].Product = copyProduct(p)
		}
	}
	return order
}

func copyProduct(p *models.Product) *models.Product {
	clone := *p
	clone.Images = append([]string(nil), p.Images...)
	return &clone
}

func copyOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Product = nil
		clone.Items[i] = item
	}
	return &clone
}

var _ Store = (*MemoryStore)(nil)
