package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/pkg/db/models"
)

// Repository persists activity log rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an activity repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one activity row, assigning an id when the caller left it empty.
func (r *Repository) Insert(ctx context.Context, row *models.ActivityLog) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// ListForUser returns the user's most recent activity, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
