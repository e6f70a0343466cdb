package types

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

// ItemRef is the tagged reference a cart line holds into the catalog.
// The variant constructors are the only supported way to build one, which
// keeps "exactly one catalog id populated" out of runtime checks entirely.
type ItemRef struct {
	Type enums.ItemType `json:"item_type"`
	ID   uuid.UUID      `json:"item_id"`
}

// ProductRef references a product row.
func ProductRef(id uuid.UUID) ItemRef {
	return ItemRef{Type: enums.ItemTypeProduct, ID: id}
}

// ServiceRef references a fixed-price service row.
func ServiceRef(id uuid.UUID) ItemRef {
	return ItemRef{Type: enums.ItemTypeService, ID: id}
}

// CustomServiceRef references a one-off custom service row.
func CustomServiceRef(id uuid.UUID) ItemRef {
	return ItemRef{Type: enums.ItemTypeCustomService, ID: id}
}

// ParseItemRef validates raw type/id input into an ItemRef.
func ParseItemRef(itemType string, id uuid.UUID) (ItemRef, error) {
	parsed, err := enums.ParseItemType(itemType)
	if err != nil {
		return ItemRef{}, err
	}
	if id == uuid.Nil {
		return ItemRef{}, fmt.Errorf("item id is required")
	}
	return ItemRef{Type: parsed, ID: id}, nil
}

// Validate reports whether the reference carries a known type and a non-nil id.
func (r ItemRef) Validate() error {
	if !r.Type.IsValid() {
		return fmt.Errorf("invalid item type %q", r.Type)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("item id is required")
	}
	return nil
}

// String renders the reference for logs and activity descriptions.
func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}
