package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/velorashop/velora-backend/api/responses"
	pkgAuth "github.com/velorashop/velora-backend/pkg/auth"
	"github.com/velorashop/velora-backend/pkg/auth/session"
	"github.com/velorashop/velora-backend/pkg/config"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/logger"
)

// Auth authenticates the request via a session cookie or a bearer token and
// seeds the context with an AuthContext. Cookie sessions are the primary
// path for the storefront; bearer tokens serve API clients.
func Auth(jwtCfg config.JWTConfig, sessionCfg config.SessionConfig, sessions session.Loader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actx, err := authenticate(r, jwtCfg, sessionCfg, sessions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAuthContext(r.Context(), *actx)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actx.UserID.String(),
					"actor_role": string(actx.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, jwtCfg config.JWTConfig, sessionCfg config.SessionConfig, sessions session.Loader) (*AuthContext, error) {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		return authenticateBearer(jwtCfg, raw)
	}

	cookie, err := r.Cookie(sessionCfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable")
	}

	sess, err := sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	return &AuthContext{
		UserID:     sess.UserID,
		Role:       sess.Role,
		SessionID:  cookie.Value,
		CSRFToken:  sess.CSRFToken,
		CookieAuth: true,
	}, nil
}

func authenticateBearer(jwtCfg config.JWTConfig, raw string) (*AuthContext, error) {
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	return &AuthContext{
		UserID: claims.UserID,
		Role:   claims.Role,
	}, nil
}
