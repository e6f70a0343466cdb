package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/pkg/db/models"
)

// UserRepository loads account rows for authentication.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository bound to the provided DB.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail loads a user by their normalized email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
