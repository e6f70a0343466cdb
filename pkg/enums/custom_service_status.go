package enums

// CustomServiceStatus follows a one-off service from quote to settlement.
// Only pending custom services are cart-eligible.
type CustomServiceStatus string

const (
	CustomServiceStatusPending   CustomServiceStatus = "pending"
	CustomServiceStatusPaid      CustomServiceStatus = "paid"
	CustomServiceStatusCancelled CustomServiceStatus = "cancelled"
)

// String implements fmt.Stringer.
func (c CustomServiceStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomServiceStatus.
func (c CustomServiceStatus) IsValid() bool {
	switch c {
	case CustomServiceStatusPending, CustomServiceStatusPaid, CustomServiceStatusCancelled:
		return true
	}
	return false
}
