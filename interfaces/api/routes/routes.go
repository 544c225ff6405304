package routes

import (
	"github.com/gofiber/fiber/v2"

	"eventphoto-api/infrastructure/websocket"
	"eventphoto-api/interfaces/api/handlers"
	"eventphoto-api/interfaces/api/middleware"
	"eventphoto-api/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, wsManager *websocket.Manager, cfg *config.Config) {
	SetupHealthRoutes(app, h.Health)

	api := app.Group("/api/v1", middleware.RateLimiter(&cfg.RateLimit))

	SetupPhotoRoutes(api, h, cfg.JWT.Secret)
	SetupLogRoutes(api, h, cfg.Admin.Token)

	// WebSocket needs the app, not the api group
	SetupWebSocketRoutes(app, wsManager, cfg.JWT.Secret)
}
