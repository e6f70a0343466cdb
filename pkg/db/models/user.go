package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// User is an account that can authenticate and own a cart.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Name         string     `gorm:"column:name;not null"`
	Role         enums.Role `gorm:"column:role;not null;default:'customer'"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
