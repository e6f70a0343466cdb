package enums

// ActivityAction names the cart mutation recorded in the activity log.
type ActivityAction string

const (
	ActivityCartAdd    ActivityAction = "cart_add"
	ActivityCartUpdate ActivityAction = "cart_update"
	ActivityCartRemove ActivityAction = "cart_remove"
	ActivityCartClear  ActivityAction = "cart_clear"
)

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	switch a {
	case ActivityCartAdd, ActivityCartUpdate, ActivityCartRemove, ActivityCartClear:
		return true
	}
	return false
}
