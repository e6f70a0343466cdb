package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/enums"
)

type contextKey string

const ctxAuth contextKey = "auth_context"

// AuthContext carries the authenticated identity through the request. It is
// the only value handlers read; how the user authenticated (cookie session
// or bearer token) is recorded so CSRF checks can apply to cookies only.
type AuthContext struct {
	UserID     uuid.UUID
	Role       enums.Role
	SessionID  string
	CSRFToken  string
	CookieAuth bool
}

// WithAuthContext injects the authenticated identity into the context.
func WithAuthContext(ctx context.Context, actx AuthContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuth, actx)
}

// AuthFromContext returns the authenticated identity, if any.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return AuthContext{}, false
	}
	actx, ok := ctx.Value(ctxAuth).(AuthContext)
	return actx, ok
}
