package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// Product is a physical or digital catalog item with tracked stock.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Description string              `gorm:"column:description"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	SalePrice   *decimal.Decimal    `gorm:"column:sale_price;type:numeric(12,2)"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	IsDigital   bool                `gorm:"column:is_digital;not null;default:false"`
	Image       *string             `gorm:"column:image"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the sale price when one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}
