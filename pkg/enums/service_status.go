package enums

// ServiceStatus tracks whether a fixed-price service is bookable.
type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusInactive ServiceStatus = "inactive"
)

// String implements fmt.Stringer.
func (s ServiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceStatus.
func (s ServiceStatus) IsValid() bool {
	return s == ServiceStatusActive || s == ServiceStatusInactive
}
