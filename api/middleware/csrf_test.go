package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

func csrfHandler() http.Handler {
	return RequireCSRF(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestWithAuth(method string, actx AuthContext) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/cart/add", nil)
	return req.WithContext(WithAuthContext(req.Context(), actx))
}

func TestCSRFAllowsReadsWithoutToken(t *testing.T) {
	req := requestWithAuth(http.MethodGet, AuthContext{
		UserID:     uuid.New(),
		Role:       enums.RoleCustomer,
		CSRFToken:  "issued",
		CookieAuth: true,
	})
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCSRFBlocksCookieMutationWithoutToken(t *testing.T) {
	req := requestWithAuth(http.MethodPost, AuthContext{
		UserID:     uuid.New(),
		Role:       enums.RoleCustomer,
		CSRFToken:  "issued",
		CookieAuth: true,
	})
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCSRFAcceptsMatchingToken(t *testing.T) {
	req := requestWithAuth(http.MethodPost, AuthContext{
		UserID:     uuid.New(),
		Role:       enums.RoleCustomer,
		CSRFToken:  "issued",
		CookieAuth: true,
	})
	req.Header.Set(csrfHeader, "issued")
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCSRFAcceptsBodyToken(t *testing.T) {
	body := `{"item_type":"product","quantity":1,"csrf_token":"issued"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body))
	req = req.WithContext(WithAuthContext(req.Context(), AuthContext{
		UserID:     uuid.New(),
		Role:       enums.RoleCustomer,
		CSRFToken:  "issued",
		CookieAuth: true,
	}))

	var seen string
	handler := RequireCSRF(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		seen = string(payload)
		w.WriteHeader(http.StatusOK)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != body {
		t.Fatalf("body not rewound for the handler, got %q", seen)
	}
}

func TestCSRFRejectsMismatchedBodyToken(t *testing.T) {
	body := `{"csrf_token":"stale"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body))
	req = req.WithContext(WithAuthContext(req.Context(), AuthContext{
		UserID:     uuid.New(),
		Role:       enums.RoleCustomer,
		CSRFToken:  "issued",
		CookieAuth: true,
	}))
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCSRFExemptsBearerRequests(t *testing.T) {
	req := requestWithAuth(http.MethodPost, AuthContext{
		UserID: uuid.New(),
		Role:   enums.RoleStaff,
	})
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for bearer request, got %d", resp.Code)
	}
}

func TestCSRFRequiresAuthContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", nil)
	resp := httptest.NewRecorder()
	csrfHandler().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
