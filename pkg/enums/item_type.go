package enums

import "fmt"

// ItemType identifies which catalog table a cart line references.
type ItemType string

const (
	ItemTypeProduct       ItemType = "product"
	ItemTypeService       ItemType = "service"
	ItemTypeCustomService ItemType = "custom_service"
)

var validItemTypes = []ItemType{
	ItemTypeProduct,
	ItemTypeService,
	ItemTypeCustomService,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
