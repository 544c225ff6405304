package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"eventphoto-api/pkg/logger"
	"eventphoto-api/pkg/utils"
)

// Protected middleware validates JWT tokens and sets user context
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		userCtx, err := utils.ValidateToken(token, jwtSecret)
		if err != nil {
			logger.Warn(logger.CategoryAuth, "token_rejected", "Token validation failed", map[string]interface{}{
				"path":  c.Path(),
				"error": err.Error(),
			})
			switch err {
			case utils.ErrExpiredToken:
				return utils.UnauthorizedResponse(c, "Token has expired")
			case utils.ErrInvalidToken:
				return utils.UnauthorizedResponse(c, "Invalid token")
			default:
				return utils.UnauthorizedResponse(c, "Token validation failed")
			}
		}

		c.Locals("user", userCtx)
		return c.Next()
	}
}

// RequireRoles lets the request through when the user holds any of roles
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := utils.GetUserFromContext(c)
		if err != nil {
			return utils.UnauthorizedResponse(c, "User not authenticated")
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		logger.Auth("role_denied", "Insufficient permissions", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
			"path":    c.Path(),
		})
		return utils.ForbiddenResponse(c, "Insufficient permissions")
	}
}

// StaffOnly admits photo moderators
func StaffOnly() fiber.Handler {
	return RequireRoles(utils.RoleStaff, utils.RoleAdmin)
}

// AdminToken checks the X-Admin-Token header (or ?token=) against token
func AdminToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Admin-Token")
		if provided == "" {
			provided = c.Query("token")
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return utils.UnauthorizedResponse(c, "Invalid admin token")
		}
		return c.Next()
	}
}

// OptionalWithQueryToken middleware that checks both header and query parameter for token
// Used for WebSocket connections where Authorization header can't be sent
func OptionalWithQueryToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		if authHeader := c.Get("Authorization"); authHeader != "" {
			token = utils.ExtractTokenFromHeader(authHeader)
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return c.Next()
		}

		userCtx, err := utils.ValidateToken(token, jwtSecret)
		if err != nil {
			return c.Next()
		}

		c.Locals("user", userCtx)
		return c.Next()
	}
}
