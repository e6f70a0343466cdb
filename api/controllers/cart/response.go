package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/velorashop/velora-backend/internal/cart"
	"github.com/velorashop/velora-backend/pkg/enums"
)

// LinePayload is the wire shape of one cart line. Money fields render as
// fixed two-decimal strings.
type LinePayload struct {
	LineID      uuid.UUID      `json:"line_id"`
	ItemType    enums.ItemType `json:"item_type"`
	ItemID      uuid.UUID      `json:"item_id"`
	Name        string         `json:"name,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	Image       *string        `json:"image,omitempty"`
	UnitPrice   string         `json:"unit_price,omitempty"`
	Quantity    int            `json:"quantity"`
	LineTotal   string         `json:"line_total,omitempty"`
	Unavailable bool           `json:"unavailable,omitempty"`
}

type TotalsPayload struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type CartPayload struct {
	Count  int            `json:"count"`
	Items  []LinePayload  `json:"items,omitempty"`
	Totals *TotalsPayload `json:"totals,omitempty"`
}

// SummaryPayload is the condensed cart view: distinct line count, total
// quantity, and an emptiness flag.
type SummaryPayload struct {
	ItemTypes  int            `json:"item_types"`
	TotalItems int            `json:"total_items"`
	IsEmpty    bool           `json:"is_empty"`
	Totals     *TotalsPayload `json:"totals,omitempty"`
}

// MutationPayload reports what a mutation did alongside the envelope's
// cart_count.
type MutationPayload struct {
	Action       string         `json:"action"`
	Item         *ChangePayload `json:"item,omitempty"`
	ItemsRemoved *int           `json:"items_removed,omitempty"`
}

type ChangePayload struct {
	CartItemID       uuid.UUID      `json:"cart_item_id"`
	ItemType         enums.ItemType `json:"item_type"`
	ItemID           uuid.UUID      `json:"item_id"`
	Name             string         `json:"name,omitempty"`
	PreviousQuantity int            `json:"previous_quantity"`
	Quantity         int            `json:"quantity"`
	UnitPrice        string         `json:"unit_price,omitempty"`
	LineTotal        string         `json:"line_total,omitempty"`
}

func toMutationPayload(result *cartsvc.MutationResult) MutationPayload {
	payload := MutationPayload{Action: result.Action}
	if result.Action == "cleared" {
		removed := result.ItemsRemoved
		payload.ItemsRemoved = &removed
	}
	if result.Line != nil {
		item := &ChangePayload{
			CartItemID:       result.Line.LineID,
			ItemType:         result.Line.Ref.Type,
			ItemID:           result.Line.Ref.ID,
			Name:             result.Line.Name,
			PreviousQuantity: result.Line.PreviousQuantity,
			Quantity:         result.Line.Quantity,
		}
		if !result.Line.UnitPrice.IsZero() {
			item.UnitPrice = result.Line.UnitPrice.StringFixed(2)
			item.LineTotal = result.Line.LineTotal.StringFixed(2)
		}
		payload.Item = item
	}
	return payload
}

func toCartPayload(view *cartsvc.CartView) CartPayload {
	payload := CartPayload{Count: view.Count}

	if view.Lines != nil {
		payload.Items = make([]LinePayload, 0, len(view.Lines))
		for _, line := range view.Lines {
			item := LinePayload{
				LineID:      line.LineID,
				ItemType:    line.Ref.Type,
				ItemID:      line.Ref.ID,
				Name:        line.Name,
				Slug:        line.Slug,
				Image:       line.Image,
				Quantity:    line.Quantity,
				Unavailable: line.Unavailable,
			}
			if !line.Unavailable {
				item.UnitPrice = line.UnitPrice.StringFixed(2)
				item.LineTotal = line.LineTotal.StringFixed(2)
			}
			payload.Items = append(payload.Items, item)
		}
	}

	payload.Totals = toTotalsPayload(view.Totals)
	return payload
}

func toSummaryPayload(view *cartsvc.CartView) SummaryPayload {
	return SummaryPayload{
		ItemTypes:  view.LineCount,
		TotalItems: view.Count,
		IsEmpty:    view.Count == 0,
		Totals:     toTotalsPayload(view.Totals),
	}
}

func toTotalsPayload(totals *cartsvc.Totals) *TotalsPayload {
	if totals == nil {
		return nil
	}
	return &TotalsPayload{
		Subtotal: totals.Subtotal.StringFixed(2),
		Tax:      totals.Tax.StringFixed(2),
		Total:    totals.Total.StringFixed(2),
	}
}
