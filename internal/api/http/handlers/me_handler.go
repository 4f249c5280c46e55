package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jack-Libra/coffeenote/internal/auth"
	apperrors "github.com/Jack-Libra/coffeenote/pkg/util/errorutil"
)

// MeHandler reports the identity attached to the current request.
type MeHandler struct{}

// NewMeHandler constructs handler.
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// Get handles GET /api/me. It reads the identity from the request context,
// the same copy services receive through c.UserContext().
func (h *MeHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": identity})
}
