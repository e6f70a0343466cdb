package cart

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/api/middleware"
	"github.com/velorashop/velora-backend/api/responses"
	"github.com/velorashop/velora-backend/api/validators"
	cartsvc "github.com/velorashop/velora-backend/internal/cart"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/logger"
	"github.com/velorashop/velora-backend/pkg/types"
)

// Add merges the requested quantity into the caller's cart.
func Add(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}

		var payload AddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, err := types.ParseItemRef(payload.ItemType, payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference"))
			return
		}

		result, err := svc.AddItem(r.Context(), userID, ref, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCartSuccess(w, "item added to cart", toMutationPayload(result), result.CartCount)
	}
}

// Update applies a single quantity change, or a bulk batch when the body
// carries an items array. Bulk batches are all-or-nothing.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}

		var payload UpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(payload.Items) > 0 {
			updates := make([]cartsvc.QuantityUpdate, 0, len(payload.Items))
			for _, entry := range payload.Items {
				ref, err := entry.resolveRef(r.Context(), svc, userID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				qty, err := entry.quantity()
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				updates = append(updates, cartsvc.QuantityUpdate{Ref: ref, Quantity: qty})
			}

			result, err := svc.BulkUpdate(r.Context(), userID, updates)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteCartSuccess(w, "cart updated", toMutationPayload(result), result.CartCount)
			return
		}

		ref, err := payload.resolveRef(r.Context(), svc, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := payload.quantity()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateQuantity(r.Context(), userID, ref, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCartSuccess(w, "cart updated", toMutationPayload(result), result.CartCount)
	}
}

// Remove deletes one line, or empties the cart when clear_cart is set.
func Remove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}

		var payload RemoveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.ClearCart {
			if payload.CartItemID != nil || payload.ItemType != "" || payload.ItemID != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "clear_cart cannot be combined with a line selector"))
				return
			}
			result, err := svc.ClearCart(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteCartSuccess(w, "cart cleared", toMutationPayload(result), result.CartCount)
			return
		}

		sel, err := payload.selector()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveLine(r.Context(), userID, sel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCartSuccess(w, "item removed from cart", toMutationPayload(result), result.CartCount)
	}
}

// Fetch returns the cart. The format parameter picks the detail level
// (count, summary, or full); explicit details/totals parameters override it.
func Fetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}

		format, opts, err := viewOptions(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), userID, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// A details override on the summary format promotes it to the full
		// item listing.
		if format == "summary" && !opts.IncludeItems {
			responses.WriteCartSuccess(w, "", toSummaryPayload(view), view.Count)
			return
		}
		responses.WriteCartSuccess(w, "", toCartPayload(view), view.Count)
	}
}

func viewOptions(r *http.Request) (string, cartsvc.ViewOptions, error) {
	var opts cartsvc.ViewOptions

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "count":
	case "summary":
		opts.IncludeTotals = true
	case "", "full":
		format = "full"
		opts.IncludeItems = true
		opts.IncludeTotals = true
	default:
		return format, opts, pkgerrors.New(pkgerrors.CodeValidation, "format must be one of count, summary, full").
			WithDetails(map[string]any{"field": "format"})
	}

	if r.URL.Query().Has("details") {
		include, err := validators.ParseQueryBool(r, "details", opts.IncludeItems)
		if err != nil {
			return format, opts, err
		}
		opts.IncludeItems = include
	}
	if r.URL.Query().Has("totals") {
		include, err := validators.ParseQueryBool(r, "totals", opts.IncludeTotals)
		if err != nil {
			return format, opts, err
		}
		opts.IncludeTotals = include
	}
	return format, opts, nil
}

func requireUser(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}
	actx, ok := middleware.AuthFromContext(r.Context())
	if !ok || actx.UserID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return actx.UserID, true
}
