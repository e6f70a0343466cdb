package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// CustomService is a bespoke quote issued to a single user. Only the owner
// may add it to their cart, and only while it is still pending.
type CustomService struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID uuid.UUID                 `gorm:"column:owner_user_id;type:uuid;not null;index"`
	Title       string                    `gorm:"column:title;not null"`
	Description string                    `gorm:"column:description"`
	Status      enums.CustomServiceStatus `gorm:"column:status;not null;default:'pending'"`
	Price       decimal.Decimal           `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
