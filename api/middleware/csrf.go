package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/velorashop/velora-backend/api/responses"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/logger"
	"github.com/velorashop/velora-backend/pkg/security"
)

const csrfHeader = "X-CSRF-Token"

// RequireCSRF blocks mutating requests that ride on a session cookie unless
// they present the CSRF token issued with that session. Bearer-token
// requests are exempt: no cookie, no cross-site risk.
func RequireCSRF(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			actx, ok := AuthFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !actx.CookieAuth {
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(csrfHeader)
			if submitted == "" {
				submitted = csrfTokenFromBody(r)
			}
			if !security.VerifyCSRFToken(actx.CSRFToken, submitted) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid csrf token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// csrfTokenFromBody pulls csrf_token out of a JSON body, rewinding the body
// so the handler can decode it again.
func csrfTokenFromBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	payload, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(payload))
	if err != nil {
		return ""
	}

	var body struct {
		Token string `json:"csrf_token"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Token
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
