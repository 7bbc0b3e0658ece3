package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/regportal-api/internal/application/admin"
	"github.com/regportal-api/internal/application/otp"
	"github.com/regportal-api/internal/application/registration"
	"github.com/regportal-api/internal/application/stats"
	"github.com/regportal-api/internal/config"
	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/transport/http/handler"
	appmiddleware "github.com/regportal-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds the application services the router exposes.
type Deps struct {
	OTP          otp.Service
	Registration registration.Service
	Admin        admin.Service
	Stats        stats.Service
	Tokens       appmiddleware.TokenVerifier
}

// NewRouter builds and returns the application router. ctx bounds background
// work owned by the router, such as rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Separate per-IP buckets, so code re-requests and typos cannot use up
	// the final submit or an admin's login.
	otpRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	submitRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	loginRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.OTP)
	regH := handler.NewRegistrationHandler(deps.Registration)
	statsH := handler.NewStatsHandler(deps.Stats)
	adminH := handler.NewAdminHandler(deps.Admin)

	r.Get("/ping", healthH.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(otpRL.Limit).Post("/otp/issue", otpH.Issue)
		r.With(otpRL.Limit).Post("/otp/verify", otpH.Verify)
		r.With(submitRL.Limit).Post("/registrations", regH.Submit)
		r.Get("/stats", statsH.Current)

		r.Route("/admin", func(r chi.Router) {
			r.With(loginRL.Limit).Post("/login", adminH.Login)

			// ── Admin-only routes ────────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.Tokens))
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/registrations", adminH.ListRegistrations)
				r.Get("/registrations/{id}", adminH.GetRegistration)
				r.Get("/registrations/{id}/documents/{kind}", adminH.Document)
				r.Post("/stats/refresh", statsH.Refresh)
			})
		})
	})

	return r
}
