package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vidyasetu/auth-api/internal/application/flow"
	"github.com/vidyasetu/auth-api/internal/application/guard"
	"github.com/vidyasetu/auth-api/internal/application/otp"
	"github.com/vidyasetu/auth-api/internal/application/provision"
	"github.com/vidyasetu/auth-api/internal/config"
	"github.com/vidyasetu/auth-api/internal/transport/http/handler"
	appmiddleware "github.com/vidyasetu/auth-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. Applied to endpoints that trigger SMS
	// delivery or accept guessable secrets.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	flowDeps := flow.Deps{
		Otp:         otp.NewChannel(deps.Directory, cfg.CountryCallingCode),
		Guard:       guard.New(deps.Directory),
		Provisioner: provision.New(deps.Directory),
		CallingCode: cfg.CountryCallingCode,
	}
	registry := flow.NewRegistry(cfg.AttemptTTL)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registry, flowDeps, deps.Directory, deps.JWTProvider)
	profileH := handler.NewProfileHandler(deps.Directory)
	sessionH := handler.NewSessionHandler(deps.Directory)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/{role}/login", authH.StartLogin)
			r.With(sensitiveRL.Limit).Post("/{role}/register", authH.StartRegistration)

			r.Route("/attempts/{id}", func(r chi.Router) {
				r.Post("/captcha", authH.RefreshCaptcha)
				r.With(sensitiveRL.Limit).Post("/otp", authH.SendOtp)
				r.With(sensitiveRL.Limit).Post("/verify", authH.Verify)
				r.Post("/identifier", authH.ChangeMobile)
				r.Delete("/", authH.Cancel)
			})
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/profiles/me", profileH.Me)
			r.Post("/sessions/logout", sessionH.Logout)
		})
	})

	return r
}
