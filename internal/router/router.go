package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-travel-auth/internal/config"
	"go-travel-auth/internal/database"
	"go-travel-auth/internal/handler"
	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/middleware"
	"go-travel-auth/internal/ratelimit"
)

func New(
	cfg *config.Config,
	db *database.DB,
	m *metrics.Metrics,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Governor(cfg.GovernorRPS, cfg.GovernorBurst))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			standard := rateLimitMiddleware.Limit(ratelimit.CategoryStandard)
			sensitive := rateLimitMiddleware.Limit(ratelimit.CategorySensitive)

			auth.With(standard).Post("/login", authHandler.Login)
			auth.With(standard).Post("/refresh", authHandler.Refresh)
			auth.With(sensitive).Post("/register", authHandler.Register)
			auth.With(sensitive).Post("/verify-email", authHandler.VerifyEmail)
			auth.With(sensitive).Post("/resend-verification", authHandler.ResendVerification)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin"))
			admin.Post("/users/{user_id}/lock", adminHandler.LockUser)
			admin.Post("/users/{user_id}/unlock", adminHandler.UnlockUser)
		})
	})

	return r
}
