package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService owns order placement and the order lifecycle.
type OrderService struct {
	store        repository.Store
	cache        *repository.ProductCache
	audit        repository.AuditTrail
	metrics      *metrics.ShopMetrics
	logger       *zap.Logger
	taxRate      decimal.Decimal
	shippingCost decimal.Decimal
}

func NewOrderService(
	store repository.Store,
	cache *repository.ProductCache,
	audit repository.AuditTrail,
	m *metrics.ShopMetrics,
	logger *zap.Logger,
	taxRate, shippingCost decimal.Decimal,
) *OrderService {
	if audit == nil {
		audit = repository.NopAuditTrail{}
	}
	return &OrderService{
		store:        store,
		cache:        cache,
		audit:        audit,
		metrics:      m,
		logger:       logger,
		taxRate:      taxRate,
		shippingCost: shippingCost,
	}
}

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress string
	BillingAddress  string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	PaymentMethod   string
	Notes           string
}

// Place validates the request, decrements stock per line item, computes
// totals, and persists the order with its items. The whole sequence runs in
// one transaction: a failure on any line rolls back every earlier decrement,
// and the per-row conditional decrement keeps concurrent placements from
// driving stock negative.
func (s *OrderService) Place(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, err
	}

	billing := in.BillingAddress
	if billing == "" {
		billing = in.ShippingAddress
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     newOrderNumber(),
		Status:          models.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
	}

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))

		for _, line := range in.Items {
			product, err := tx.Products().GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.Products().DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ID:          uuid.NewString(),
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				Total:       lineTotal,
			})
		}

		tax := subtotal.Mul(s.taxRate).Round(2)
		order.Subtotal = subtotal
		order.Tax = tax
		order.ShippingCost = s.shippingCost
		order.Total = subtotal.Add(tax).Add(s.shippingCost)
		order.Items = items

		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		var stockErr *models.InsufficientStockError
		if errors.As(err, &stockErr) && s.metrics != nil {
			s.metrics.StockConflicts.Inc()
		}
		return nil, err
	}

	s.invalidateItemProducts(ctx, order.Items)
	s.audit.Record(repository.AuditOrderPlaced, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
		"items":        len(order.Items),
	})
	if s.metrics != nil {
		s.metrics.OrdersPlaced.Inc()
	}
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()),
		zap.Int("items", len(order.Items)))

	return order, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return &models.ValidationError{Msg: "order must contain at least one item"}
	}
	for _, line := range in.Items {
		if line.ProductID == "" {
			return &models.ValidationError{Msg: "item productId is required"}
		}
		if line.Quantity <= 0 {
			return &models.ValidationError{Msg: fmt.Sprintf("item quantity must be positive for product %s", line.ProductID)}
		}
	}
	if in.ShippingAddress == "" {
		return &models.ValidationError{Msg: "shippingAddress is required"}
	}
	if in.CustomerName == "" {
		return &models.ValidationError{Msg: "customerName is required"}
	}
	if in.CustomerEmail == "" {
		return &models.ValidationError{Msg: "customerEmail is required"}
	}
	return nil
}

// newOrderNumber builds a time-derived order number with a random suffix so
// collisions between same-instant orders are negligible.
func newOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}

// Get returns one order with its items and referenced products.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.store.Orders().GetByID(ctx, id)
}

// List returns all orders, newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.store.Orders().List(ctx)
}

// UpdateStatus moves an order along the lifecycle. Transitions are checked
// against the state table; a requested move to cancelled goes through Cancel
// so restocking is never bypassed.
func (s *OrderService) UpdateStatus(ctx context.Context, id, rawStatus string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if next == models.OrderStatusCancelled {
		return s.Cancel(ctx, id)
	}

	var updated *models.Order
	err = s.store.Transact(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return &models.InvalidStateError{
				Msg: fmt.Sprintf("cannot transition order from %s to %s", order.Status, next),
			}
		}
		if err := tx.Orders().UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		order.Status = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(repository.AuditOrderStatusSet, id, map[string]interface{}{
		"status": string(next),
	})
	s.logger.Info("order status updated",
		zap.String("order_id", id),
		zap.String("status", string(next)))

	return updated, nil
}

// Cancel restocks every line item and marks the order cancelled. Delivered
// and already-cancelled orders cannot be cancelled. Restock and the status
// write share one transaction; a product that disappeared from the catalog
// since purchase is skipped, matching the best-effort restock contract.
func (s *OrderService) Cancel(ctx context.Context, id string) (*models.Order, error) {
	var cancelled *models.Order
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusDelivered {
			return &models.InvalidStateError{Msg: "cannot cancel delivered order"}
		}
		if order.Status == models.OrderStatusCancelled {
			return &models.InvalidStateError{Msg: "order is already cancelled"}
		}

		for _, item := range order.Items {
			if err := tx.Products().Restock(ctx, item.ProductID, item.Quantity); err != nil {
				var nf *models.NotFoundError
				if errors.As(err, &nf) {
					s.logger.Warn("skipping restock for missing product",
						zap.String("order_id", id),
						zap.String("product_id", item.ProductID))
					continue
				}
				return err
			}
		}

		if err := tx.Orders().UpdateStatus(ctx, id, models.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateItemProducts(ctx, cancelled.Items)
	s.audit.Record(repository.AuditOrderCancelled, id, map[string]interface{}{
		"order_number": cancelled.OrderNumber,
	})
	if s.metrics != nil {
		s.metrics.OrdersCancelled.Inc()
	}
	s.logger.Info("order cancelled", zap.String("order_id", id))

	return cancelled, nil
}

// Delete soft-deletes an order. No restock, no cascading checks.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.store.Orders().SoftDelete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(repository.AuditOrderDeleted, id, nil)
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}

func (s *OrderService) invalidateItemProducts(ctx context.Context, items []models.OrderItem) {
	if s.cache == nil {
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
