package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/Jack-Libra/coffeenote/pkg/util/errorutil"
)

// RequireIdentity rejects requests that reached a protected route without an identity.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
