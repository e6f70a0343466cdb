package controllers

import (
	"net/http"
	"time"

	"github.com/velorashop/velora-backend/api/responses"
	"github.com/velorashop/velora-backend/api/validators"
	authsvc "github.com/velorashop/velora-backend/internal/auth"
	"github.com/velorashop/velora-backend/pkg/config"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      authsvc.UserSummary `json:"user"`
	CSRFToken string              `json:"csrf_token"`
}

// Login verifies credentials, sets the session cookie, and returns the CSRF
// token the client must echo on mutating requests.
func Login(svc authsvc.Service, sessionCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, sessionCookie(sessionCfg, result.SessionID, sessionCfg.TTL))
		responses.WriteSuccess(w, "logged in", loginResponse{
			User:      result.User,
			CSRFToken: result.CSRFToken,
		})
	}
}

// Logout revokes the session and expires the cookie. Logging out without a
// session still succeeds.
func Logout(svc authsvc.Service, sessionCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if cookie, err := r.Cookie(sessionCfg.CookieName); err == nil && cookie.Value != "" {
			if err := svc.Logout(r.Context(), cookie.Value); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		http.SetCookie(w, sessionCookie(sessionCfg, "", -time.Hour))
		responses.WriteSuccess(w, "logged out", nil)
	}
}

func sessionCookie(cfg config.SessionConfig, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	} else {
		cookie.MaxAge = -1
	}
	return cookie
}
