package middleware

import (
	"strings"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
)

const callerKey = "caller"

// AuthRequired is a Fiber middleware that resolves the bearer token into a caller.
// Failures are returned to the app error handler.
func AuthRequired(idp services.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return &services.Error{Kind: services.KindUnauthorized, Message: "Authorization header is required"}
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "") {
			return &services.Error{Kind: services.KindUnauthorized, Message: "Authorization header format must be 'Bearer <token>'"}
		}

		caller, err := idp.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// CallerFrom returns the caller stored by AuthRequired, or nil on public routes.
func CallerFrom(c *fiber.Ctx) *models.Caller {
	caller, _ := c.Locals(callerKey).(*models.Caller)
	return caller
}
