package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/types"
)

// ResolvedItem is the cart-facing snapshot of a catalog item. Ceiling is the
// maximum quantity a single cart may hold; nil means unbounded.
type ResolvedItem struct {
	Ref       types.ItemRef
	Name      string
	Slug      string
	Image     *string
	UnitPrice decimal.Decimal
	Ceiling   *int
	Digital   bool
}

type catalogLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	GetCustomService(ctx context.Context, id uuid.UUID) (*models.CustomService, error)
}

// Resolver maps an item reference to a priced, availability-checked snapshot.
type Resolver interface {
	Resolve(ctx context.Context, ref types.ItemRef, requesterID uuid.UUID) (*ResolvedItem, error)
}

type resolver struct {
	repo catalogLoader
}

// NewResolver builds a resolver backed by the catalog repository.
func NewResolver(repo catalogLoader) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &resolver{repo: repo}, nil
}

const bookingCeiling = 1

// Resolve loads the referenced item and applies purchasability rules.
// Custom services belong to a single user: a non-owner gets a forbidden
// error rather than a not-found so staff can distinguish the cases in logs.
func (r *resolver) Resolve(ctx context.Context, ref types.ItemRef, requesterID uuid.UUID) (*ResolvedItem, error) {
	if err := ref.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference")
	}

	switch ref.Type {
	case enums.ItemTypeProduct:
		return r.resolveProduct(ctx, ref)
	case enums.ItemTypeService:
		return r.resolveService(ctx, ref)
	case enums.ItemTypeCustomService:
		return r.resolveCustomService(ctx, ref, requesterID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item type")
	}
}

func (r *resolver) resolveProduct(ctx context.Context, ref types.ItemRef) (*ResolvedItem, error) {
	row, err := r.repo.GetProduct(ctx, ref.ID)
	if err != nil {
		return nil, notFoundOrDependency(err, "product")
	}
	if row.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not available")
	}

	var ceiling *int
	if !row.IsDigital {
		stock := row.Stock
		ceiling = &stock
	}

	return &ResolvedItem{
		Ref:       ref,
		Name:      row.Name,
		Slug:      row.Slug,
		Image:     row.Image,
		UnitPrice: row.EffectivePrice(),
		Ceiling:   ceiling,
		Digital:   row.IsDigital,
	}, nil
}

func (r *resolver) resolveService(ctx context.Context, ref types.ItemRef) (*ResolvedItem, error) {
	row, err := r.repo.GetService(ctx, ref.ID)
	if err != nil {
		return nil, notFoundOrDependency(err, "service")
	}
	if row.Status != enums.ServiceStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service is not available")
	}

	ceiling := bookingCeiling
	return &ResolvedItem{
		Ref:       ref,
		Name:      row.Name,
		Slug:      row.Slug,
		Image:     row.Image,
		UnitPrice: row.Price,
		Ceiling:   &ceiling,
	}, nil
}

func (r *resolver) resolveCustomService(ctx context.Context, ref types.ItemRef, requesterID uuid.UUID) (*ResolvedItem, error) {
	row, err := r.repo.GetCustomService(ctx, ref.ID)
	if err != nil {
		return nil, notFoundOrDependency(err, "custom service")
	}
	if row.OwnerUserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "custom service belongs to another user")
	}
	if row.Status != enums.CustomServiceStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "custom service is no longer payable")
	}

	ceiling := bookingCeiling
	return &ResolvedItem{
		Ref:       ref,
		Name:      row.Title,
		Slug:      "",
		UnitPrice: row.Price,
		Ceiling:   &ceiling,
	}, nil
}

func notFoundOrDependency(err error, noun string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, noun+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+noun)
}
