package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// CartLine is one (user, item) entry in a cart. The composite unique index
// guarantees at most one line per distinct item even under concurrent adds.
type CartLine struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_lines_user_item"`
	ItemType  enums.ItemType `gorm:"column:item_type;not null;uniqueIndex:idx_cart_lines_user_item"`
	ItemID    uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_lines_user_item"`
	Quantity  int            `gorm:"column:quantity;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the plural snake_case table the migrations create.
func (CartLine) TableName() string {
	return "cart_lines"
}
