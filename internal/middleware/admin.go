package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	AdminKey   = "is_admin"
	AdminIDKey = "admin_id"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminAuth middleware checks if the authenticated user is an admin
func AdminAuth(admins AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		isAdmin, err := admins.IsAdmin(c.Context(), userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("failed to check admin status")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to check admin status",
			})
		}

		if !isAdmin {
			log.Warn().Int64("user_id", userID).Str("path", c.Path()).Msg("admin access denied")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "access denied",
			})
		}

		c.Locals(AdminKey, true)
		c.Locals(AdminIDKey, userID)

		return c.Next()
	}
}

// GetAdminID returns the admin user ID from context
func GetAdminID(c *fiber.Ctx) int64 {
	adminID, ok := c.Locals(AdminIDKey).(int64)
	if !ok {
		return 0
	}
	return adminID
}
