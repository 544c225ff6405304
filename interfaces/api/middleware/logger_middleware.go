package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"eventphoto-api/pkg/logger"
)

// LoggerMiddleware writes one api log entry per request
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				status = e.Code
			}
		}

		data := map[string]interface{}{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   status,
			"duration": time.Since(start).String(),
			"ip":       c.IP(),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error(logger.CategoryAPI, "request", "Request failed", err, data)
		case status >= fiber.StatusBadRequest:
			logger.Warn(logger.CategoryAPI, "request", "Request rejected", data)
		default:
			logger.API("request", "Request handled", data)
		}

		return err
	}
}

func CorsMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token",
	})
}
