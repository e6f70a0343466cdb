package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// ActivityLog records a cart mutation for the admin audit trail.
type ActivityLog struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Action    enums.ActivityAction `gorm:"column:action;not null"`
	Detail    string               `gorm:"column:detail"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
