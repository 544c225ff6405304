package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eventphoto-api/domain/repositories"
	"eventphoto-api/infrastructure/faceapi"
	"eventphoto-api/infrastructure/postgres"
	"eventphoto-api/infrastructure/redis"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db              *gorm.DB
	redisClient     *redis.RedisClient
	faceClient      *faceapi.FaceClient
	photoRepository repositories.PhotoRepository
}

// NewHealthHandler creates a new health handler. redisClient and faceClient
// are nil when disabled.
func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.RedisClient,
	faceClient *faceapi.FaceClient,
	photoRepository repositories.PhotoRepository,
) *HealthHandler {
	return &HealthHandler{
		db:              db,
		redisClient:     redisClient,
		faceClient:      faceClient,
		photoRepository: photoRepository,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                       `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                    `json:"timestamp"`
	Components map[string]ComponentHealth   `json:"components"`
	Embeddings *repositories.EmbeddingStats `json:"embeddings,omitempty"`
}

// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Server is running",
		"service": "Event Photo API",
	})
}

// DetailedHealth reports every dependency. Only a database failure makes
// the service unhealthy.
// GET /health/detailed
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	response := DetailedHealthResponse{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}

	dbHealth := h.checkDatabase(ctx)
	redisHealth := h.checkRedis(ctx)
	faceHealth := h.checkFaceAPI(ctx)

	response.Components["database"] = dbHealth
	response.Components["redis"] = redisHealth
	response.Components["face_api"] = faceHealth

	if dbHealth.Status == "ok" && h.photoRepository != nil {
		if stats, err := h.photoRepository.EmbeddingStats(ctx); err == nil {
			response.Embeddings = stats
		}
	}

	switch {
	case dbHealth.Status != "ok":
		response.Status = "unhealthy"
	case redisHealth.Status == "error" || faceHealth.Status == "error":
		response.Status = "degraded"
	default:
		response.Status = "healthy"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database not configured",
		}
	}

	if err := postgres.Ping(ctx, h.db); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redisClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Redis not configured",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Redis ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkFaceAPI(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.faceClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Face API disabled",
		}
	}

	health, err := h.faceClient.Health(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Face API health check failed: " + err.Error(),
		}
	}

	message := "Status: " + health.Status
	if health.Model != "" {
		message += ", Model: " + health.Model
	}

	return ComponentHealth{
		Status:  "ok",
		Message: message,
		Latency: time.Since(start).String(),
	}
}
