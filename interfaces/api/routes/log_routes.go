package routes

import (
	"github.com/gofiber/fiber/v2"

	"eventphoto-api/interfaces/api/handlers"
	"eventphoto-api/interfaces/api/middleware"
)

// SetupLogRoutes sets up log-related routes
func SetupLogRoutes(router fiber.Router, h *handlers.Handlers, adminToken string) {
	admin := router.Group("/admin", middleware.AdminToken(adminToken))

	admin.Get("/logs", h.Log.GetLogs)
	admin.Get("/logs/files", h.Log.GetLogFiles)
	admin.Get("/logs/stats", h.Log.GetLogStats)
}
