package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus validates a raw status string against the enumeration.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch st := OrderStatus(raw); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Msg: "invalid order status: " + raw}
}

// orderTransitions encodes the allowed lifecycle moves. Cancellation is
// reachable from every non-terminal state; delivered and cancelled are final.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from this state.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order is a customer purchase aggregate. Totals are computed once at
// placement: total = subtotal + tax + shippingCost, subtotal = sum of
// item totals.
type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderNumber"`
	UserID          *string         `gorm:"type:varchar(36);index" json:"userId,omitempty"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"shippingCost"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	ShippingAddress string          `gorm:"type:varchar(255);not null" json:"shippingAddress"`
	BillingAddress  string          `gorm:"type:varchar(255);not null" json:"billingAddress"`
	CustomerName    string          `gorm:"type:varchar(100);not null" json:"customerName"`
	CustomerEmail   string          `gorm:"type:varchar(100);not null" json:"customerEmail"`
	CustomerPhone   string          `gorm:"type:varchar(20)" json:"customerPhone"`
	PaymentMethod   string          `gorm:"type:varchar(50)" json:"paymentMethod,omitempty"`
	TransactionID   string          `gorm:"type:varchar(100)" json:"transactionId,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots one product's name and unit price at order time,
// decoupled from later catalog edits.
type OrderItem struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID     string          `gorm:"type:varchar(36);not null;index" json:"-"`
	ProductID   string          `gorm:"type:varchar(36);not null" json:"productId"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"productName"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
