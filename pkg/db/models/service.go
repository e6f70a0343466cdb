package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// Service is a fixed-price offering booked at most once per cart.
type Service struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Description string              `gorm:"column:description"`
	Status      enums.ServiceStatus `gorm:"column:status;not null;default:'active'"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Image       *string             `gorm:"column:image"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
