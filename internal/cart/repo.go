package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/types"
)

// LineRepository exposes persistence operations for cart lines.
type LineRepository interface {
	WithTx(tx *gorm.DB) LineRepository
	FindLineForUpdate(ctx context.Context, userID uuid.UUID, ref types.ItemRef) (*models.CartLine, error)
	FindLineByID(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error)
	ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	SaveQuantity(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, userID, lineID uuid.UUID) (int64, error)
	DeleteByRef(ctx context.Context, userID uuid.UUID, ref types.ItemRef) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumQuantities(ctx context.Context, userID uuid.UUID) (int, error)
}

// Repository is the GORM-backed LineRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart line repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) LineRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindLineForUpdate loads the user's line for the referenced item, taking a
// row lock when the dialect supports it. SQLite serializes writers on its
// own, so the clause is only applied on Postgres.
func (r *Repository) FindLineForUpdate(ctx context.Context, userID uuid.UUID, ref types.ItemRef) (*models.CartLine, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var line models.CartLine
	err := q.
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, ref.Type, ref.ID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLineByID loads a line by id, restricted to the owning user.
func (r *Repository) FindLineByID(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListLines returns the user's cart lines in insertion order.
func (r *Repository) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateLine inserts a new cart line, assigning an id when the caller left it empty.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(line).Error
}

// SaveQuantity persists a quantity change on an existing line.
func (r *Repository) SaveQuantity(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", line.ID).
		Update("quantity", line.Quantity).Error
}

// DeleteLine removes a line by id, restricted to the owning user.
func (r *Repository) DeleteLine(ctx context.Context, userID, lineID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteByRef removes the user's line for the referenced item.
func (r *Repository) DeleteByRef(ctx context.Context, userID uuid.UUID, ref types.ItemRef) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, ref.Type, ref.ID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteAllForUser empties the user's cart.
func (r *Repository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// SumQuantities returns the total quantity across the user's lines.
func (r *Repository) SumQuantities(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
