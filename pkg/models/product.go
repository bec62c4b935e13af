package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog item with a stock count.
type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	IsAvailable bool            `gorm:"not null;default:true" json:"isAvailable"`
	Images      []string        `gorm:"serializer:json;type:text" json:"images"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
