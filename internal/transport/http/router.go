package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/marque-api/internal/application/auth"
	"github.com/marque-api/internal/application/market"
	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/application/verification"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/pkg/ratelimit"
	"github.com/marque-api/internal/transport/http/handler"
	appmiddleware "github.com/marque-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiters are the keyed rate limiters the router enforces. Callers own their sweep loops.
type Limiters struct {
	IP    *ratelimit.Keyed
	Phone *ratelimit.Keyed
}

// NewLimiters builds the default limiters: 5 requests/second per IP with a burst of 10,
// and the configured per-phone code budget.
func NewLimiters(cfg *config.Config) Limiters {
	return Limiters{
		IP:    ratelimit.New(rate.Limit(5), 10),
		Phone: ratelimit.PerWindow(cfg.PhoneSendLimit, cfg.PhoneSendLimitWindow),
	}
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps, limiters Limiters) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", market.OverrideHeader},
		ExposedHeaders:   []string{appmiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	codes := verification.NewService(deps.Registry,
		verification.WithCodeTTL(cfg.VerificationCodeTTL),
		verification.WithLogger(log.Named("verification")),
		verification.WithMetrics(deps.Metrics))
	authOpts := []auth.Option{auth.WithLogger(log.Named("auth"))}
	if limiters.Phone != nil {
		authOpts = append(authOpts, auth.WithPhoneLimiter(limiters.Phone))
	}
	authSvc := auth.NewService(deps.Registry, codes, deps.SMSSender, deps.JWTProvider, authOpts...)
	sessionSvc := session.NewService(deps.Registry, deps.SessionStore,
		session.WithTTL(cfg.Session.TTL),
		session.WithLogger(log.Named("session")),
		session.WithMetrics(deps.Metrics))

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	adminH := handler.NewAdminHandler(sessionSvc, deps.Registry, cfg.Session)

	sensitive := func(h http.HandlerFunc) http.Handler { return h }
	if limiters.IP != nil {
		sensitive = func(h http.HandlerFunc) http.Handler { return appmiddleware.RateLimit(limiters.IP)(h) }
	}

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{Timeout: 10 * time.Second}))
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/auth/markets", authH.Markets)
		r.Method(http.MethodPost, "/auth/send-code", sensitive(authH.SendCode))
		r.Method(http.MethodPost, "/auth/verify-code", sensitive(authH.VerifyCode))
		r.Method(http.MethodPost, "/admin/login", sensitive(adminH.Login))
		r.Post("/admin/logout", adminH.Logout)

		// ── End users (bearer token) ─────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/auth/profile", authH.GetProfile)
			r.Put("/auth/profile", authH.UpdateProfile)
			r.Get("/auth/verify-token", authH.VerifyToken)
			r.Post("/auth/logout", authH.Logout)
		})

		// ── Operators (session cookie, re-checked per request) ───────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.AdminSession(sessionSvc, cfg.Session.CookieName))

			r.Get("/admin/me", adminH.Me)
			r.With(appmiddleware.RequireSuperAdmin).Get("/admin/stores", adminH.Stores)
		})
	})

	return r
}
