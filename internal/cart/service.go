package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/internal/catalog"
	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemResolver interface {
	Resolve(ctx context.Context, ref types.ItemRef, requesterID uuid.UUID) (*catalog.ResolvedItem, error)
}

type activityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction, detail string)
}

// Service exposes the cart mutation and read operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, ref types.ItemRef, qty int) (*MutationResult, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, ref types.ItemRef, qty int) (*MutationResult, error)
	BulkUpdate(ctx context.Context, userID uuid.UUID, updates []QuantityUpdate) (*MutationResult, error)
	RemoveLine(ctx context.Context, userID uuid.UUID, sel RemovalSelector) (*MutationResult, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*MutationResult, error)
	GetCart(ctx context.Context, userID uuid.UUID, opts ViewOptions) (*CartView, error)
	CartCount(ctx context.Context, userID uuid.UUID) (int, error)
	LineRef(ctx context.Context, userID, lineID uuid.UUID) (types.ItemRef, error)
}

// MutationResult reports the cart state after a successful mutation. Action
// is one of "created", "updated", "removed", or "cleared"; Line describes the
// touched line when a single line was targeted. ItemsRemoved counts the lines
// deleted by a clear.
type MutationResult struct {
	CartCount    int
	Action       string
	Line         *LineChange
	ItemsRemoved int
}

// LineChange is the before/after snapshot of one mutated line.
type LineChange struct {
	LineID           uuid.UUID
	Ref              types.ItemRef
	Name             string
	PreviousQuantity int
	Quantity         int
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
}

// QuantityUpdate is one entry of a bulk quantity change. Quantity zero
// removes the line.
type QuantityUpdate struct {
	Ref      types.ItemRef
	Quantity int
}

// RemovalSelector targets a line either by its id or by the item it holds.
// Exactly one field must be set.
type RemovalSelector struct {
	LineID *uuid.UUID
	Ref    *types.ItemRef
}

// ViewOptions controls how much of the cart GetCart materializes.
type ViewOptions struct {
	IncludeItems  bool
	IncludeTotals bool
}

// CartView is the read model returned by GetCart. Count sums quantities;
// LineCount is the number of distinct lines.
type CartView struct {
	Count     int
	LineCount int
	Lines     []LineView
	Totals    *Totals
}

// LineView is a cart line joined with its catalog snapshot. Unavailable is
// set when the referenced item can no longer be resolved; such lines are
// excluded from totals.
type LineView struct {
	LineID      uuid.UUID
	Ref         types.ItemRef
	Name        string
	Slug        string
	Image       *string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
	Unavailable bool
}

// Totals are computed at read time; tax is never stored.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// BulkFailure describes one rejected entry of a bulk update.
type BulkFailure struct {
	Ref    types.ItemRef  `json:"ref"`
	Code   pkgerrors.Code `json:"code"`
	Reason string         `json:"reason"`
}

type service struct {
	repo     LineRepository
	tx       txRunner
	resolver itemResolver
	activity activityRecorder
	taxRate  decimal.Decimal
}

// NewService builds a cart service backed by the provided stack. The
// activity recorder is optional; everything else is required.
func NewService(repo LineRepository, tx txRunner, resolver itemResolver, activity activityRecorder, taxRate float64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart line repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if taxRate < 0 || taxRate >= 1 {
		return nil, fmt.Errorf("tax rate must be within [0, 1)")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		resolver: resolver,
		activity: activity,
		taxRate:  decimal.NewFromFloat(taxRate),
	}, nil
}

// AddItem merges the requested quantity into any existing line for the same
// item, enforcing the item's quantity ceiling inside one transaction.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, ref types.ItemRef, qty int) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	resolved, err := s.resolver.Resolve(ctx, ref, userID)
	if err != nil {
		return nil, err
	}
	if isBooking(ref.Type) && qty > 1 {
		return nil, quantityLimitError(1, qty)
	}
	if resolved.Ceiling != nil && *resolved.Ceiling == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "item is out of stock").
			WithDetails(map[string]any{"item": ref.String()})
	}

	action := "created"
	change := &LineChange{Ref: ref, Name: resolved.Name, UnitPrice: resolved.UnitPrice}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLineForUpdate(ctx, userID, ref)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		merged := qty
		if line != nil {
			action = "updated"
			change.PreviousQuantity = line.Quantity
			merged += line.Quantity
		}
		if resolved.Ceiling != nil && merged > *resolved.Ceiling {
			return quantityLimitError(*resolved.Ceiling, merged)
		}
		change.Quantity = merged
		change.LineTotal = resolved.UnitPrice.Mul(decimal.NewFromInt(int64(merged)))

		if line == nil {
			created := &models.CartLine{
				UserID:   userID,
				ItemType: ref.Type,
				ItemID:   ref.ID,
				Quantity: merged,
			}
			if err := txRepo.CreateLine(ctx, created); err != nil {
				return err
			}
			change.LineID = created.ID
			return nil
		}
		change.LineID = line.ID
		line.Quantity = merged
		return txRepo.SaveQuantity(ctx, line)
	}); err != nil {
		return nil, asCartError(err, "add item to cart")
	}

	count, err := s.repo.SumQuantities(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}

	s.record(ctx, userID, enums.ActivityCartAdd, fmt.Sprintf("%s x%d", ref, qty))
	return &MutationResult{CartCount: count, Action: action, Line: change}, nil
}

// UpdateQuantity sets the line to an absolute quantity. Zero removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, ref types.ItemRef, qty int) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty == 0 {
		return s.RemoveLine(ctx, userID, RemovalSelector{Ref: &ref})
	}

	resolved, err := s.resolver.Resolve(ctx, ref, userID)
	if err != nil {
		return nil, err
	}
	if isBooking(ref.Type) && qty > 1 {
		return nil, quantityLimitError(1, qty)
	}

	change := &LineChange{
		Ref:       ref,
		Name:      resolved.Name,
		Quantity:  qty,
		UnitPrice: resolved.UnitPrice,
		LineTotal: resolved.UnitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLineForUpdate(ctx, userID, ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in your cart")
			}
			return err
		}
		if resolved.Ceiling != nil && qty > *resolved.Ceiling {
			if *resolved.Ceiling == 0 {
				return pkgerrors.New(pkgerrors.CodeOutOfStock, "item is out of stock").
					WithDetails(map[string]any{"item": ref.String()})
			}
			return quantityLimitError(*resolved.Ceiling, qty)
		}

		change.LineID = line.ID
		change.PreviousQuantity = line.Quantity
		line.Quantity = qty
		return txRepo.SaveQuantity(ctx, line)
	}); err != nil {
		return nil, asCartError(err, "update cart quantity")
	}

	count, err := s.repo.SumQuantities(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}

	s.record(ctx, userID, enums.ActivityCartUpdate, fmt.Sprintf("%s -> %d", ref, qty))
	return &MutationResult{CartCount: count, Action: "updated", Line: change}, nil
}

// BulkUpdate applies several quantity changes atomically. When any entry is
// rejected the whole batch rolls back and the error details carry every
// failure plus the refs that would have succeeded.
func (s *service) BulkUpdate(ctx context.Context, userID uuid.UUID, updates []QuantityUpdate) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one update is required")
	}

	seen := map[types.ItemRef]struct{}{}
	for _, u := range updates {
		if err := u.Ref.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference")
		}
		if u.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		if _, dup := seen[u.Ref]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate item in update").
				WithDetails(map[string]any{"item": u.Ref.String()})
		}
		seen[u.Ref] = struct{}{}
	}

	var failures []BulkFailure
	var applied []string

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var errs error

		for _, u := range updates {
			if err := s.applyOne(ctx, txRepo, userID, u); err != nil {
				typed := pkgerrors.As(err)
				if typed == nil {
					return err
				}
				failures = append(failures, BulkFailure{
					Ref:    u.Ref,
					Code:   typed.Code(),
					Reason: typed.Message(),
				})
				errs = multierr.Append(errs, err)
				continue
			}
			applied = append(applied, u.Ref.String())
		}

		return errs
	})
	if err != nil {
		if len(failures) > 0 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bulk update rejected").
				WithDetails(map[string]any{
					"failures":    failures,
					"rolled_back": applied,
				})
		}
		return nil, asCartError(err, "bulk update cart")
	}

	count, err := s.repo.SumQuantities(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}

	s.record(ctx, userID, enums.ActivityCartUpdate, fmt.Sprintf("bulk update of %d lines", len(updates)))
	return &MutationResult{CartCount: count, Action: "updated"}, nil
}

func (s *service) applyOne(ctx context.Context, txRepo LineRepository, userID uuid.UUID, u QuantityUpdate) error {
	if u.Quantity == 0 {
		affected, err := txRepo.DeleteByRef(ctx, userID, u.Ref)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in your cart")
		}
		return nil
	}

	resolved, err := s.resolver.Resolve(ctx, u.Ref, userID)
	if err != nil {
		return err
	}
	if isBooking(u.Ref.Type) && u.Quantity > 1 {
		return quantityLimitError(1, u.Quantity)
	}

	line, err := txRepo.FindLineForUpdate(ctx, userID, u.Ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in your cart")
		}
		return err
	}
	if resolved.Ceiling != nil && u.Quantity > *resolved.Ceiling {
		if *resolved.Ceiling == 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "item is out of stock")
		}
		return quantityLimitError(*resolved.Ceiling, u.Quantity)
	}

	line.Quantity = u.Quantity
	return txRepo.SaveQuantity(ctx, line)
}

// RemoveLine deletes a single line, targeted by id or by item reference.
func (s *service) RemoveLine(ctx context.Context, userID uuid.UUID, sel RemovalSelector) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if (sel.LineID == nil) == (sel.Ref == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of line id or item reference is required")
	}
	if sel.Ref != nil {
		if err := sel.Ref.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item reference")
		}
	}

	var line *models.CartLine
	var err error
	if sel.LineID != nil {
		line, err = s.repo.FindLineByID(ctx, userID, *sel.LineID)
	} else {
		line, err = s.repo.FindLineForUpdate(ctx, userID, *sel.Ref)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	ref := types.ItemRef{Type: line.ItemType, ID: line.ItemID}
	change := &LineChange{
		LineID:           line.ID,
		Ref:              ref,
		PreviousQuantity: line.Quantity,
	}
	// Best effort; the item may no longer resolve and the removal still stands.
	if resolved, rerr := s.resolver.Resolve(ctx, ref, userID); rerr == nil {
		change.Name = resolved.Name
	}

	affected, err := s.repo.DeleteLine(ctx, userID, line.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	count, err := s.repo.SumQuantities(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}

	s.record(ctx, userID, enums.ActivityCartRemove, removalDetail(sel))
	return &MutationResult{CartCount: count, Action: "removed", Line: change}, nil
}

// ClearCart empties the cart. Clearing an already empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	affected, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if affected > 0 {
		s.record(ctx, userID, enums.ActivityCartClear, fmt.Sprintf("removed %d lines", affected))
	}
	return &MutationResult{CartCount: 0, Action: "cleared", ItemsRemoved: int(affected)}, nil
}

// GetCart materializes the cart. Lines whose catalog item has disappeared or
// become unpurchasable stay visible but are flagged and excluded from totals.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID, opts ViewOptions) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	rows, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	view := &CartView{LineCount: len(rows)}
	for _, row := range rows {
		view.Count += row.Quantity
	}

	if !opts.IncludeItems && !opts.IncludeTotals {
		return view, nil
	}

	subtotal := decimal.Zero
	lines := make([]LineView, 0, len(rows))
	for _, row := range rows {
		ref := types.ItemRef{Type: row.ItemType, ID: row.ItemID}
		resolved, err := s.resolver.Resolve(ctx, ref, userID)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() == pkgerrors.CodeDependency {
				return nil, err
			}
			lines = append(lines, LineView{
				LineID:      row.ID,
				Ref:         ref,
				Quantity:    row.Quantity,
				Unavailable: true,
			})
			continue
		}

		lineTotal := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, LineView{
			LineID:    row.ID,
			Ref:       ref,
			Name:      resolved.Name,
			Slug:      resolved.Slug,
			Image:     resolved.Image,
			UnitPrice: resolved.UnitPrice,
			Quantity:  row.Quantity,
			LineTotal: lineTotal,
		})
	}

	if opts.IncludeItems {
		view.Lines = lines
	}
	if opts.IncludeTotals {
		tax := subtotal.Mul(s.taxRate).Round(2)
		view.Totals = &Totals{
			Subtotal: subtotal,
			Tax:      tax,
			Total:    subtotal.Add(tax),
		}
	}
	return view, nil
}

// CartCount returns the total quantity across the user's lines.
func (s *service) CartCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	count, err := s.repo.SumQuantities(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}
	return count, nil
}

// LineRef translates a line id into the item reference it holds, restricted
// to the owning user.
func (s *service) LineRef(ctx context.Context, userID, lineID uuid.UUID) (types.ItemRef, error) {
	if userID == uuid.Nil || lineID == uuid.Nil {
		return types.ItemRef{}, pkgerrors.New(pkgerrors.CodeValidation, "user id and line id are required")
	}
	line, err := s.repo.FindLineByID(ctx, userID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ItemRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return types.ItemRef{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return types.ItemRef{Type: line.ItemType, ID: line.ItemID}, nil
}

func (s *service) record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, userID, action, detail)
}

// isBooking reports whether the item type is capped at one per cart.
func isBooking(t enums.ItemType) bool {
	return t == enums.ItemTypeService || t == enums.ItemTypeCustomService
}

func quantityLimitError(limit, requested int) *pkgerrors.Error {
	noun := "items"
	if limit == 1 {
		noun = "item"
	}
	return pkgerrors.New(pkgerrors.CodeQuantityLimit, fmt.Sprintf("only %d %s available", limit, noun)).
		WithDetails(map[string]any{"limit": limit, "requested": requested})
}

func removalDetail(sel RemovalSelector) string {
	if sel.LineID != nil {
		return "line " + sel.LineID.String()
	}
	return sel.Ref.String()
}

// asCartError passes typed errors through and wraps raw storage failures.
func asCartError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
