package routes

import (
	"github.com/gofiber/fiber/v2"

	"eventphoto-api/interfaces/api/handlers"
	"eventphoto-api/interfaces/api/middleware"
)

func SetupPhotoRoutes(router fiber.Router, h *handlers.Handlers, jwtSecret string) {
	photos := router.Group("/photos", middleware.Protected(jwtSecret))

	// Any signed-in user
	photos.Post("/search-by-face", h.Face.SearchByFace)
	photos.Post("/face-search", h.Face.SearchByFace)
	photos.Post("/selfie-embed", h.Face.SelfieEmbed)

	// Moderation. A staff Group would share the /photos prefix and gate
	// every route above, so the role check is attached per route.
	staff := middleware.StaffOnly()
	photos.Get("/pending", staff, h.Photo.ListPending)
	photos.Get("/embedding-stats", staff, h.Photo.EmbeddingStats)
	photos.Post("/backfill-embeddings", staff, h.Photo.BackfillEmbeddings)
	photos.Post("/:id/approve", staff, h.Photo.Approve)
	photos.Post("/:id/reject", staff, h.Photo.Reject)
}
