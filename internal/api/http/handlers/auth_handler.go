package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Jack-Libra/coffeenote/internal/api/dto"
	"github.com/Jack-Libra/coffeenote/internal/auth"
	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/service"
	apperrors "github.com/Jack-Libra/coffeenote/pkg/util/errorutil"
)

// AuthHandler exposes the token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" || req.Secret == "" {
		return apperrors.NewValidationError("subject and secret required", nil)
	}

	grant, err := h.auth.Login(c.UserContext(), domain.Credential{Subject: req.Subject, Secret: req.Secret})
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			return apperrors.NewUnauthorized("invalid subject or secret")
		}
		return apperrors.NewInternalError(err)
	}
	return c.JSON(tokenResponse(grant))
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return apperrors.NewUnauthorizedWithCause(err.Error(), err)
	}

	grant, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshWindowExceeded) {
			return apperrors.NewUnauthorizedWithCause("token expired too long ago to refresh", err)
		}
		return apperrors.NewUnauthorizedWithCause("token cannot be refreshed", err)
	}
	return c.JSON(tokenResponse(grant))
}

// Validate handles GET /api/auth/validate.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(dto.ValidateResponse{Valid: false, Message: err.Error()})
	}

	result := h.auth.Validate(c.UserContext(), token)
	if !result.Valid {
		message := "token is invalid"
		if result.Status == auth.StatusExpired {
			message = "token has expired"
		}
		return c.Status(http.StatusUnauthorized).JSON(dto.ValidateResponse{Valid: false, Message: message})
	}

	return c.JSON(dto.ValidateResponse{
		Valid:            true,
		Subject:          result.Subject,
		PrincipalID:      result.PrincipalID,
		RemainingSeconds: result.RemainingSeconds,
	})
}

// Logout handles POST /api/auth/logout. The token is not invalidated server-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return apperrors.NewBadRequest(err.Error())
	}
	h.auth.Logout(c.UserContext(), token)
	return c.JSON(dto.MessageResponse{Message: "logged out; discard the token, it remains valid until it expires"})
}

func tokenResponse(grant *service.TokenGrant) dto.TokenResponse {
	return dto.TokenResponse{
		Token:            grant.Token,
		Type:             grant.Type,
		Subject:          grant.Subject,
		PrincipalID:      grant.PrincipalID,
		ExpiresInSeconds: grant.ExpiresInSeconds,
	}
}
