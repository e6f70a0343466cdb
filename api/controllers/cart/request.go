package cart

import (
	"context"

	"github.com/google/uuid"

	cartsvc "github.com/velorashop/velora-backend/internal/cart"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/types"
)

// AddRequest adds a quantity of one catalog item to the cart.
type AddRequest struct {
	ItemType string    `json:"item_type" validate:"required,oneof=product service custom_service"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// UpdateEntry targets one line either by its cart line id or by the
// (item_type, item_id) pair it holds. Quantity zero removes the line.
type UpdateEntry struct {
	CartItemID *uuid.UUID `json:"cart_item_id"`
	ItemType   string     `json:"item_type" validate:"omitempty,oneof=product service custom_service"`
	ItemID     *uuid.UUID `json:"item_id"`
	Quantity   *int       `json:"quantity"`
}

// UpdateRequest carries either a single quantity change or a bulk batch.
// When items is present the top-level fields are ignored.
type UpdateRequest struct {
	UpdateEntry
	Items []UpdateEntry `json:"items"`
}

// RemoveRequest removes one line by id or item reference, or empties the
// whole cart when clear_cart is set.
type RemoveRequest struct {
	CartItemID *uuid.UUID `json:"cart_item_id"`
	ItemType   string     `json:"item_type" validate:"omitempty,oneof=product service custom_service"`
	ItemID     *uuid.UUID `json:"item_id"`
	ClearCart  bool       `json:"clear_cart"`
}

type lineResolver interface {
	LineRef(ctx context.Context, userID, lineID uuid.UUID) (types.ItemRef, error)
}

// resolveRef turns the entry's target into an item reference, looking the
// line up when it was addressed by cart line id.
func (e UpdateEntry) resolveRef(ctx context.Context, svc lineResolver, userID uuid.UUID) (types.ItemRef, error) {
	byID := e.CartItemID != nil
	byRef := e.ItemType != "" || e.ItemID != nil
	if byID == byRef {
		return types.ItemRef{}, pkgerrors.New(pkgerrors.CodeValidation, "provide either cart_item_id or item_type with item_id")
	}
	if byID {
		return svc.LineRef(ctx, userID, *e.CartItemID)
	}
	if e.ItemID == nil {
		return types.ItemRef{}, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	ref, err := types.ParseItemRef(e.ItemType, *e.ItemID)
	if err != nil {
		return types.ItemRef{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference")
	}
	return ref, nil
}

func (e UpdateEntry) quantity() (int, error) {
	if e.Quantity == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required")
	}
	if *e.Quantity < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return *e.Quantity, nil
}

// selector translates the removal request into a service selector. Exactly
// one of clear_cart, cart_item_id, or the item pair must be present; the
// caller handles clear_cart before calling this.
func (req RemoveRequest) selector() (cartsvc.RemovalSelector, error) {
	byID := req.CartItemID != nil
	byRef := req.ItemType != "" || req.ItemID != nil
	if byID == byRef {
		return cartsvc.RemovalSelector{}, pkgerrors.New(pkgerrors.CodeValidation, "provide either cart_item_id or item_type with item_id")
	}
	if byID {
		return cartsvc.RemovalSelector{LineID: req.CartItemID}, nil
	}
	if req.ItemID == nil {
		return cartsvc.RemovalSelector{}, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	ref, err := types.ParseItemRef(req.ItemType, *req.ItemID)
	if err != nil {
		return cartsvc.RemovalSelector{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference")
	}
	return cartsvc.RemovalSelector{Ref: &ref}, nil
}
