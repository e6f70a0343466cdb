package types

// Envelope is the wire shape shared by every cart API response. CartCount is
// recomputed from storage after each successful mutation; it is omitted on
// error responses and on non-cart endpoints.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	CartCount *int   `json:"cart_count,omitempty"`

	// Populated only on bulk-update validation failures.
	Errors         any `json:"errors,omitempty"`
	PartialResults any `json:"partial_results,omitempty"`
}
