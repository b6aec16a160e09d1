package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/skillshare/skillshare-backend/internal/api/handlers"
	"github.com/skillshare/skillshare-backend/internal/api/middleware"
	"github.com/skillshare/skillshare-backend/internal/config"
	"github.com/skillshare/skillshare-backend/internal/service"
	"github.com/skillshare/skillshare-backend/internal/websocket"
)

// Deps are the collaborators the router needs beyond the services.
type Deps struct {
	Hub *websocket.Hub
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Uploads serves locally stored media under /uploads/ when set.
	Uploads http.Handler
	Logger  *slog.Logger
}

func NewRouter(services *service.Services, deps Deps, cfg *config.Config) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.Uploads != nil {
		r.Method(http.MethodGet, "/uploads/*", deps.Uploads)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	accountHandler := handlers.NewAccountHandler(services.Account, cfg.MediaMaxBytes, logger)
	storyHandler := handlers.NewStoryHandler(services.Story, cfg.MediaMaxBytes, logger)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, services.Auth, cfg.CORSAllowedOrigin, logger)

	requireAuth := middleware.Auth(services.Auth, logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/public-profile/{id}", accountHandler.PublicProfile)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
				r.Post("/logout-all", authHandler.LogoutAll)
				r.Put("/change-password", authHandler.ChangePassword)
				r.Put("/change-email", accountHandler.ChangeEmail)
				r.Put("/deactivate", accountHandler.Deactivate)
				r.Delete("/account", accountHandler.DeleteAccount)
				r.Put("/profile", accountHandler.UpdateProfile)
				r.Post("/categories", accountHandler.SaveCategories)
				r.Get("/search", accountHandler.Search)
			})
		})

		// Story routes
		r.Route("/stories", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", storyHandler.Create)
			r.Get("/", storyHandler.List)
			r.Get("/{id}", storyHandler.Get)
			r.Put("/{id}", storyHandler.UpdateText)
			r.Delete("/{id}", storyHandler.Delete)
			r.Put("/{id}/view", storyHandler.View)
			r.Get("/{id}/viewers", storyHandler.Viewers)
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
