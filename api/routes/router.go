package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velorashop/velora-backend/api/controllers"
	cartctl "github.com/velorashop/velora-backend/api/controllers/cart"
	"github.com/velorashop/velora-backend/api/middleware"
	authsvc "github.com/velorashop/velora-backend/internal/auth"
	cartsvc "github.com/velorashop/velora-backend/internal/cart"
	"github.com/velorashop/velora-backend/pkg/auth/session"
	"github.com/velorashop/velora-backend/pkg/config"
	"github.com/velorashop/velora-backend/pkg/db"
	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/logger"
	"github.com/velorashop/velora-backend/pkg/metrics"
	redisclient "github.com/velorashop/velora-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redisclient.Client
	Sessions session.Loader
	Auth     authsvc.Service
	Cart     cartsvc.Service
	Activity ActivityStore
	Metrics  *metrics.HTTPMetrics
	Registry *prometheus.Registry
}

// ActivityStore is the slice of the activity repository the account
// endpoints read from.
type ActivityStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error)
}

// New assembles the HTTP surface: health and metrics endpoints, the auth
// endpoints, and the authenticated cart routes.
func New(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.Metrics),
	)

	var cachePing db.Pinger
	if deps.Redis != nil {
		cachePing = deps.Redis
	}
	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, deps.DB, cachePing, logg))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			login := controllers.Login(deps.Auth, cfg.Session, logg)
			if deps.Redis != nil {
				loginPolicy := middleware.NewAuthRateLimitPolicy(
					"login",
					cfg.AuthRateLimit.LoginWindow,
					cfg.AuthRateLimit.LoginIPLimit,
					cfg.AuthRateLimit.LoginEmailLimit,
				)
				r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", login)
			} else {
				r.Post("/login", login)
			}
			r.Post("/logout", controllers.Logout(deps.Auth, cfg.Session, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, cfg.Session, deps.Sessions, logg),
				middleware.RequireCSRF(logg),
			)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartctl.Fetch(deps.Cart, logg))
				r.Post("/add", cartctl.Add(deps.Cart, logg))

				update := cartctl.Update(deps.Cart, logg)
				r.Post("/update", update)
				r.Put("/update", update)
				r.Patch("/update", update)

				remove := cartctl.Remove(deps.Cart, logg)
				r.Post("/remove", remove)
				r.Delete("/remove", remove)
			})

			r.Get("/account/activity", controllers.AccountActivity(deps.Activity, logg))
		})
	})

	return r
}
