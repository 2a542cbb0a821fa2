package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pecommunity/internal/cache"
	"pecommunity/internal/catalog"
	"pecommunity/internal/db"
	"pecommunity/internal/email"
	"pecommunity/internal/handlers"
	"pecommunity/internal/handlers/api"
	"pecommunity/internal/middleware"
	"pecommunity/internal/realtime"
	"pecommunity/internal/workflow"
)

// Deps are the services the routes are built on.
type Deps struct {
	DB       *db.DB
	Catalog  *catalog.Catalog
	Workflow *workflow.Service
	Hub      *realtime.Hub
	Cache    *cache.ContentCache
	Notifier *email.Notifier
	Redis    *redis.Client // optional
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	// Initialize middleware
	tokens := middleware.NewTokenVerifier(s.Cfg.JWTSecret, s.Cfg.JWTAudience)
	authMiddleware := middleware.NewAuthMiddleware(deps.DB, tokens, s.Cfg.IsAdminEmail)

	// Initialize handlers
	probeHandler := handlers.NewProbeHandler(deps.DB, deps.Redis)
	catalogHandler := api.NewCatalogHandler(deps.Catalog)
	contentHandler := api.NewContentHandler(deps.DB, deps.Cache, deps.Catalog)
	requestHandler := api.NewRequestHandler(deps.Workflow, s.Cfg.MaxUploadBytes())
	profileHandler := api.NewProfileHandler(deps.DB)
	notificationHandler := api.NewNotificationHandler(deps.DB)
	statsHandler := api.NewStatsHandler(deps.DB)
	streamHandler := api.NewStreamHandler(deps.Hub)

	// A nil *email.Notifier must not reach the handler as a non-nil interface.
	var messageHandler *api.MessageHandler
	if deps.Notifier != nil {
		messageHandler = api.NewMessageHandler(deps.DB, deps.Notifier)
	} else {
		messageHandler = api.NewMessageHandler(deps.DB, nil)
	}

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes - only when OIDC is configured; bearer tokens work either way
	if s.Cfg.OIDCIssuer != "" {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, authMiddleware, deps.Hub)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authMiddleware.OptionalAuth, authHandler.Logout)
	} else {
		log.Println("OIDC authentication is disabled. Set OIDC_ISSUER to enable browser sign-in.")
	}

	apiGroup := s.App.Group("/api")

	// Public browsing
	apiGroup.Get("/stages", catalogHandler.Stages)
	apiGroup.Get("/stages/:stageId", catalogHandler.Stage)
	apiGroup.Get("/stages/:stageId/categories/:categoryId", catalogHandler.Category)
	apiGroup.Get("/stages/:stageId/categories/:categoryId/subcategories/:subcategoryId", catalogHandler.Subcategory)
	apiGroup.Get("/content", contentHandler.List)
	apiGroup.Get("/categories", contentHandler.Categories)

	// Contact form - anonymous or signed in
	apiGroup.Post("/messages", authMiddleware.OptionalAuth, messageHandler.Create)

	// Signed-in users
	apiGroup.Get("/me", authMiddleware.RequireAuth, profileHandler.Me)
	apiGroup.Put("/me", authMiddleware.RequireAuth, profileHandler.UpdateMe)
	apiGroup.Post("/requests", authMiddleware.RequireAuth, requestHandler.Submit)
	apiGroup.Get("/requests/mine", authMiddleware.RequireAuth, requestHandler.Mine)
	apiGroup.Get("/notifications", authMiddleware.RequireAuth, notificationHandler.List)
	apiGroup.Post("/notifications/read-all", authMiddleware.RequireAuth, notificationHandler.MarkAllRead)
	apiGroup.Post("/notifications/:id/read", authMiddleware.RequireAuth, notificationHandler.MarkRead)
	apiGroup.Get("/stream", authMiddleware.RequireAuth, streamHandler.Stream)

	// Admin only
	admin := apiGroup.Group("/admin", authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	admin.Get("/requests", requestHandler.List)
	admin.Post("/requests/:id/approve", requestHandler.Approve)
	admin.Post("/requests/:id/reject", requestHandler.Reject)
	admin.Post("/content", requestHandler.Publish)
	admin.Delete("/content/:id", requestHandler.DeleteContent)
	admin.Get("/users", profileHandler.ListUsers)
	admin.Post("/users/:id/role", profileHandler.UpdateRole)
	admin.Get("/messages", messageHandler.List)
	admin.Post("/messages/:id/read", messageHandler.MarkRead)
	admin.Get("/stats", statsHandler.Dashboard)

	return nil
}
