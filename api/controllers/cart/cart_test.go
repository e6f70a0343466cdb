package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velorashop/velora-backend/api/middleware"
	cartsvc "github.com/velorashop/velora-backend/internal/cart"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/types"
)

type stubService struct {
	addCalls    []cartsvc.QuantityUpdate
	updateCalls []cartsvc.QuantityUpdate
	bulkCalls   [][]cartsvc.QuantityUpdate
	removeCalls []cartsvc.RemovalSelector
	cleared     bool
	fetchOpts   *cartsvc.ViewOptions

	count    int
	view     *cartsvc.CartView
	lineRefs map[uuid.UUID]types.ItemRef
	err      error
}

func (s *stubService) AddItem(_ context.Context, _ uuid.UUID, ref types.ItemRef, qty int) (*cartsvc.MutationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.addCalls = append(s.addCalls, cartsvc.QuantityUpdate{Ref: ref, Quantity: qty})
	return &cartsvc.MutationResult{
		CartCount: s.count,
		Action:    "created",
		Line: &cartsvc.LineChange{
			LineID:    uuid.New(),
			Ref:       ref,
			Name:      "Stub Product",
			Quantity:  qty,
			UnitPrice: decimal.RequireFromString("10.00"),
			LineTotal: decimal.RequireFromString("10.00").Mul(decimal.NewFromInt(int64(qty))),
		},
	}, nil
}

func (s *stubService) UpdateQuantity(_ context.Context, _ uuid.UUID, ref types.ItemRef, qty int) (*cartsvc.MutationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updateCalls = append(s.updateCalls, cartsvc.QuantityUpdate{Ref: ref, Quantity: qty})
	return &cartsvc.MutationResult{CartCount: s.count, Action: "updated"}, nil
}

func (s *stubService) BulkUpdate(_ context.Context, _ uuid.UUID, updates []cartsvc.QuantityUpdate) (*cartsvc.MutationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.bulkCalls = append(s.bulkCalls, updates)
	return &cartsvc.MutationResult{CartCount: s.count, Action: "updated"}, nil
}

func (s *stubService) RemoveLine(_ context.Context, _ uuid.UUID, sel cartsvc.RemovalSelector) (*cartsvc.MutationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.removeCalls = append(s.removeCalls, sel)
	return &cartsvc.MutationResult{CartCount: s.count, Action: "removed"}, nil
}

func (s *stubService) ClearCart(context.Context, uuid.UUID) (*cartsvc.MutationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cleared = true
	return &cartsvc.MutationResult{CartCount: 0, Action: "cleared", ItemsRemoved: 2}, nil
}

func (s *stubService) GetCart(_ context.Context, _ uuid.UUID, opts cartsvc.ViewOptions) (*cartsvc.CartView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.fetchOpts = &opts
	if s.view != nil {
		return s.view, nil
	}
	return &cartsvc.CartView{Count: s.count}, nil
}

func (s *stubService) CartCount(context.Context, uuid.UUID) (int, error) {
	return s.count, nil
}

func (s *stubService) LineRef(_ context.Context, _ uuid.UUID, lineID uuid.UUID) (types.ItemRef, error) {
	ref, ok := s.lineRefs[lineID]
	if !ok {
		return types.ItemRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return ref, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithAuthContext(req.Context(), middleware.AuthContext{
		UserID: uuid.New(),
		Role:   enums.RoleCustomer,
	}))
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return envelope
}

func TestAddReturnsCartCount(t *testing.T) {
	svc := &stubService{count: 3}
	itemID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/cart/add",
		`{"item_type":"product","item_id":"`+itemID.String()+`","quantity":2}`)
	resp := httptest.NewRecorder()
	Add(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["cart_count"].(float64) != 3 {
		t.Fatalf("expected cart_count 3, got %v", envelope["cart_count"])
	}
	if len(svc.addCalls) != 1 || svc.addCalls[0].Quantity != 2 {
		t.Fatalf("unexpected add calls: %+v", svc.addCalls)
	}
	if svc.addCalls[0].Ref.ID != itemID {
		t.Fatalf("expected item id %s, got %s", itemID, svc.addCalls[0].Ref.ID)
	}

	data := envelope["data"].(map[string]any)
	if data["action"] != "created" {
		t.Fatalf("expected action created, got %v", data["action"])
	}
	item := data["item"].(map[string]any)
	if item["cart_item_id"] == nil || item["cart_item_id"] == "" {
		t.Fatal("expected cart_item_id in the add payload")
	}
	if item["name"] != "Stub Product" || item["line_total"] != "20.00" {
		t.Fatalf("unexpected item payload: %v", item)
	}
}

func TestAddRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add",
		strings.NewReader(`{"item_type":"product","item_id":"`+uuid.NewString()+`","quantity":1}`))
	resp := httptest.NewRecorder()
	Add(&stubService{}, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/cart/add",
		`{"item_type":"product","item_id":"`+uuid.NewString()+`","quantity":0}`)
	resp := httptest.NewRecorder()
	Add(&stubService{}, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddSurfacesQuantityLimit(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeQuantityLimit, "only 5 items available").
		WithDetails(map[string]any{"limit": 5, "requested": 9})}
	req := authedRequest(http.MethodPost, "/api/v1/cart/add",
		`{"item_type":"product","item_id":"`+uuid.NewString()+`","quantity":9}`)
	resp := httptest.NewRecorder()
	Add(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["message"] != "only 5 items available" {
		t.Fatalf("unexpected message: %v", envelope["message"])
	}
}

func TestUpdateSingleByItemRef(t *testing.T) {
	svc := &stubService{count: 4}
	itemID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/cart/update",
		`{"item_type":"product","item_id":"`+itemID.String()+`","quantity":4}`)
	resp := httptest.NewRecorder()
	Update(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.updateCalls) != 1 || svc.updateCalls[0].Quantity != 4 {
		t.Fatalf("unexpected update calls: %+v", svc.updateCalls)
	}
}

func TestUpdateSingleByCartItemID(t *testing.T) {
	lineID := uuid.New()
	itemID := uuid.New()
	svc := &stubService{
		count:    1,
		lineRefs: map[uuid.UUID]types.ItemRef{lineID: types.ProductRef(itemID)},
	}
	req := authedRequest(http.MethodPost, "/api/v1/cart/update",
		`{"cart_item_id":"`+lineID.String()+`","quantity":1}`)
	resp := httptest.NewRecorder()
	Update(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.updateCalls) != 1 || svc.updateCalls[0].Ref.ID != itemID {
		t.Fatalf("expected resolved ref %s, got %+v", itemID, svc.updateCalls)
	}
}

func TestUpdateUnknownCartItemID(t *testing.T) {
	svc := &stubService{lineRefs: map[uuid.UUID]types.ItemRef{}}
	req := authedRequest(http.MethodPost, "/api/v1/cart/update",
		`{"cart_item_id":"`+uuid.NewString()+`","quantity":1}`)
	resp := httptest.NewRecorder()
	Update(svc, nil)(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUpdateRejectsAmbiguousSelector(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/cart/update",
		`{"cart_item_id":"`+uuid.NewString()+`","item_type":"product","item_id":"`+uuid.NewString()+`","quantity":1}`)
	resp := httptest.NewRecorder()
	Update(&stubService{}, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpdateBulkForwardsAllEntries(t *testing.T) {
	lineID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	svc := &stubService{
		count:    7,
		lineRefs: map[uuid.UUID]types.ItemRef{lineID: types.ProductRef(itemA)},
	}
	req := authedRequest(http.MethodPut, "/api/v1/cart/update",
		`{"items":[{"cart_item_id":"`+lineID.String()+`","quantity":3},{"item_type":"product","item_id":"`+itemB.String()+`","quantity":0}]}`)
	resp := httptest.NewRecorder()
	Update(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.bulkCalls) != 1 || len(svc.bulkCalls[0]) != 2 {
		t.Fatalf("unexpected bulk calls: %+v", svc.bulkCalls)
	}
	if svc.bulkCalls[0][0].Ref.ID != itemA || svc.bulkCalls[0][1].Quantity != 0 {
		t.Fatalf("unexpected bulk entries: %+v", svc.bulkCalls[0])
	}
}

func TestUpdateBulkFailureCarriesDetails(t *testing.T) {
	itemID := uuid.New()
	failures := []cartsvc.BulkFailure{{
		Ref:    types.ProductRef(itemID),
		Code:   pkgerrors.CodeOutOfStock,
		Reason: "item is out of stock",
	}}
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeValidation, "bulk update rejected").
		WithDetails(map[string]any{
			"failures":    failures,
			"rolled_back": []string{"product/" + uuid.NewString()},
		})}

	req := authedRequest(http.MethodPut, "/api/v1/cart/update",
		`{"items":[{"item_type":"product","item_id":"`+itemID.String()+`","quantity":2}]}`)
	resp := httptest.NewRecorder()
	Update(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["errors"] == nil {
		t.Fatal("expected errors in envelope")
	}
	if envelope["partial_results"] == nil {
		t.Fatal("expected partial_results in envelope")
	}
}

func TestRemoveByItemRef(t *testing.T) {
	svc := &stubService{count: 2}
	itemID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/cart/remove",
		`{"item_type":"service","item_id":"`+itemID.String()+`"}`)
	resp := httptest.NewRecorder()
	Remove(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.removeCalls) != 1 || svc.removeCalls[0].Ref == nil {
		t.Fatalf("unexpected remove calls: %+v", svc.removeCalls)
	}
	if svc.removeCalls[0].Ref.ID != itemID {
		t.Fatalf("expected item id %s, got %s", itemID, svc.removeCalls[0].Ref.ID)
	}
}

func TestRemoveByCartItemID(t *testing.T) {
	svc := &stubService{count: 0}
	lineID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/cart/remove",
		`{"cart_item_id":"`+lineID.String()+`"}`)
	resp := httptest.NewRecorder()
	Remove(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.removeCalls) != 1 || svc.removeCalls[0].LineID == nil || *svc.removeCalls[0].LineID != lineID {
		t.Fatalf("unexpected remove calls: %+v", svc.removeCalls)
	}
}

func TestRemoveClearCart(t *testing.T) {
	svc := &stubService{}
	req := authedRequest(http.MethodPost, "/api/v1/cart/remove", `{"clear_cart":true}`)
	resp := httptest.NewRecorder()
	Remove(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.cleared {
		t.Fatal("expected ClearCart to be called")
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["cart_count"].(float64) != 0 {
		t.Fatalf("expected cart_count 0, got %v", envelope["cart_count"])
	}
	data := envelope["data"].(map[string]any)
	if data["action"] != "cleared" || data["items_removed"].(float64) != 2 {
		t.Fatalf("unexpected clear payload: %v", data)
	}
}

func TestRemoveRejectsClearCartWithSelector(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/cart/remove",
		`{"clear_cart":true,"cart_item_id":"`+uuid.NewString()+`"}`)
	resp := httptest.NewRecorder()
	Remove(&stubService{}, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestFetchFullRendersMoneyAsStrings(t *testing.T) {
	image := "products/shirt.png"
	svc := &stubService{view: &cartsvc.CartView{
		Count: 3,
		Lines: []cartsvc.LineView{{
			LineID:    uuid.New(),
			Ref:       types.ProductRef(uuid.New()),
			Name:      "Linen Shirt",
			Slug:      "linen-shirt",
			Image:     &image,
			UnitPrice: decimal.RequireFromString("15.00"),
			Quantity:  2,
			LineTotal: decimal.RequireFromString("30.00"),
		}},
		Totals: &cartsvc.Totals{
			Subtotal: decimal.RequireFromString("30.00"),
			Tax:      decimal.RequireFromString("2.40"),
			Total:    decimal.RequireFromString("32.40"),
		},
	}}

	req := authedRequest(http.MethodGet, "/api/v1/cart/", "")
	resp := httptest.NewRecorder()
	Fetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.fetchOpts == nil || !svc.fetchOpts.IncludeItems || !svc.fetchOpts.IncludeTotals {
		t.Fatalf("expected full view options, got %+v", svc.fetchOpts)
	}

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	items := data["items"].([]any)
	first := items[0].(map[string]any)
	if first["unit_price"] != "15.00" || first["line_total"] != "30.00" {
		t.Fatalf("unexpected money rendering: %+v", first)
	}
	totals := data["totals"].(map[string]any)
	if totals["total"] != "32.40" {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestFetchCountFormatSkipsMaterialization(t *testing.T) {
	svc := &stubService{count: 5}
	req := authedRequest(http.MethodGet, "/api/v1/cart/?format=count", "")
	resp := httptest.NewRecorder()
	Fetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if svc.fetchOpts == nil || svc.fetchOpts.IncludeItems || svc.fetchOpts.IncludeTotals {
		t.Fatalf("expected count-only view options, got %+v", svc.fetchOpts)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["cart_count"].(float64) != 5 {
		t.Fatalf("expected cart_count 5, got %v", envelope["cart_count"])
	}
}

func TestFetchSummaryShape(t *testing.T) {
	svc := &stubService{view: &cartsvc.CartView{
		Count:     4,
		LineCount: 2,
		Totals: &cartsvc.Totals{
			Subtotal: decimal.RequireFromString("40.00"),
			Tax:      decimal.RequireFromString("3.20"),
			Total:    decimal.RequireFromString("43.20"),
		},
	}}
	req := authedRequest(http.MethodGet, "/api/v1/cart/?format=summary", "")
	resp := httptest.NewRecorder()
	Fetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	if data["item_types"].(float64) != 2 || data["total_items"].(float64) != 4 {
		t.Fatalf("unexpected summary payload: %v", data)
	}
	if data["is_empty"].(bool) {
		t.Fatal("expected is_empty false for a populated cart")
	}
	if data["totals"].(map[string]any)["total"] != "43.20" {
		t.Fatalf("unexpected totals: %v", data["totals"])
	}
	if _, present := data["items"]; present {
		t.Fatal("summary format must not list items")
	}
}

func TestFetchSummaryEmptyCart(t *testing.T) {
	svc := &stubService{}
	req := authedRequest(http.MethodGet, "/api/v1/cart/?format=summary&totals=false", "")
	resp := httptest.NewRecorder()
	Fetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	if data["item_types"].(float64) != 0 || data["total_items"].(float64) != 0 {
		t.Fatalf("unexpected summary payload: %v", data)
	}
	if !data["is_empty"].(bool) {
		t.Fatal("expected is_empty true for an empty cart")
	}
}

func TestFetchSummaryWithDetailsOverride(t *testing.T) {
	svc := &stubService{}
	req := authedRequest(http.MethodGet, "/api/v1/cart/?format=summary&details=true", "")
	resp := httptest.NewRecorder()
	Fetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if svc.fetchOpts == nil || !svc.fetchOpts.IncludeItems || !svc.fetchOpts.IncludeTotals {
		t.Fatalf("expected details override, got %+v", svc.fetchOpts)
	}
	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	if _, present := data["item_types"]; present {
		t.Fatalf("details override should render the full shape, got %v", data)
	}
}

func TestFetchRejectsUnknownFormat(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/cart/?format=verbose", "")
	resp := httptest.NewRecorder()
	Fetch(&stubService{}, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
