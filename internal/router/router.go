package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hospital-api/internal/config"
	"hospital-api/internal/handler"
	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Patient *handler.PatientHandler
}

// Options carries the cross-cutting middleware the router wires in front of
// the handlers. Metrics is optional; CSRF enforcement is gated by config so
// header-token API clients are not forced through the cookie dance.
type Options struct {
	Auth           *middleware.AuthMiddleware
	CSRF           *middleware.CSRF
	Metrics        func(http.Handler) http.Handler
	MetricsHandler http.Handler
}

func New(cfg *config.Config, opts Options, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimit.Handler)
	if opts.Metrics != nil {
		r.Use(opts.Metrics)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		if cfg.CSRFEnabled {
			api.Use(opts.CSRF.Handler)
		}

		api.Get("/csrf-token", opts.CSRF.TokenHandler)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.With(opts.Auth.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(opts.Auth.RequireAuth).Get("/profile", h.Auth.GetProfile)
			auth.With(opts.Auth.RequireAuth).Put("/profile", h.Auth.UpdateProfile)
			auth.With(opts.Auth.RequireAuth).Put("/change-password", h.Auth.ChangePassword)
			auth.With(opts.Auth.RequireAuth).Get("/validate", h.Auth.Validate)
		})

		api.Route("/patients", func(patients chi.Router) {
			patients.Use(opts.Auth.RequireAuth)

			patients.With(opts.Auth.RequireRoles(model.RoleAdmin, model.RoleReceptionist)).Post("/", h.Patient.Create)
			patients.Get("/", h.Patient.List)
			patients.Get("/stats", h.Patient.Stats)
			patients.Get("/{id}", h.Patient.Get)
			patients.With(opts.Auth.RequireRoles(model.RoleAdmin, model.RoleReceptionist)).Put("/{id}", h.Patient.Update)
			patients.With(opts.Auth.RequireRoles(model.RoleAdmin)).Delete("/{id}", h.Patient.Delete)
		})
	})

	return r
}
