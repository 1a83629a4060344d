package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const organizationHeader = "X-Organization-ID"

// TenantMiddleware resolves the calling organization from the header set by
// the authentication layer in front of this service. Every document and query
// route is tenant-scoped, so requests without a valid organization are
// rejected before reaching a handler.
func TenantMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(organizationHeader)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing organization",
			})
		}

		orgID, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("Rejected request with malformed organization id", zap.String("value", raw))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid organization",
			})
		}

		c.Locals("organizationID", orgID.String())
		return c.Next()
	}
}

// OrganizationID reads the tenant id resolved by TenantMiddleware.
func OrganizationID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("organizationID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return uuid.Parse(raw)
}
