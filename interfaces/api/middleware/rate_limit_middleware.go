package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"eventphoto-api/pkg/config"
	"eventphoto-api/pkg/logger"
	"eventphoto-api/pkg/utils"
)

// RateLimiter limits requests per client IP; disabled config passes everything through
func RateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return limiter.New(limiter.Config{
		Max:        cfg.MaxRequests,
		Expiration: time.Duration(cfg.WindowSeconds) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn(logger.CategoryAPI, "rate_limited", "Rate limit exceeded", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
		},
	})
}
