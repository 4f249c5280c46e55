package handlers

import "github.com/gofiber/fiber/v2"

// DocsHandler serves the OpenAPI description of the token endpoints.
type DocsHandler struct {
	document fiber.Map
}

// NewDocsHandler builds the document for the given service name and version.
func NewDocsHandler(serviceName, version string) *DocsHandler {
	bearer := []fiber.Map{{"bearerAuth": []string{}}}
	tokenResponse := fiber.Map{"$ref": "#/components/schemas/TokenResponse"}

	return &DocsHandler{document: fiber.Map{
		"openapi": "3.0.3",
		"info":    fiber.Map{"title": serviceName, "version": version},
		"paths": fiber.Map{
			"/api/auth/login": fiber.Map{"post": fiber.Map{
				"summary": "Exchange credentials for a bearer token",
				"requestBody": fiber.Map{"content": fiber.Map{"application/json": fiber.Map{
					"schema": fiber.Map{"$ref": "#/components/schemas/LoginRequest"},
				}}},
				"responses": fiber.Map{
					"200": fiber.Map{"description": "token issued", "content": fiber.Map{"application/json": fiber.Map{"schema": tokenResponse}}},
					"401": fiber.Map{"description": "invalid credentials"},
				},
			}},
			"/api/auth/refresh": fiber.Map{"post": fiber.Map{
				"summary":   "Mint a new token from a current or recently expired one",
				"security":  bearer,
				"responses": fiber.Map{"200": fiber.Map{"description": "token issued", "content": fiber.Map{"application/json": fiber.Map{"schema": tokenResponse}}}, "401": fiber.Map{"description": "token cannot be refreshed"}},
			}},
			"/api/auth/validate": fiber.Map{"get": fiber.Map{
				"summary":   "Report whether a token is currently valid",
				"security":  bearer,
				"responses": fiber.Map{"200": fiber.Map{"description": "valid"}, "401": fiber.Map{"description": "expired or invalid"}},
			}},
			"/api/auth/logout": fiber.Map{"post": fiber.Map{
				"summary":   "Advisory logout; the token stays valid until it expires",
				"security":  bearer,
				"responses": fiber.Map{"200": fiber.Map{"description": "acknowledged"}},
			}},
			"/api/me": fiber.Map{"get": fiber.Map{
				"summary":   "Identity of the caller",
				"security":  bearer,
				"responses": fiber.Map{"200": fiber.Map{"description": "identity"}, "401": fiber.Map{"description": "authentication required"}},
			}},
			"/api/health": fiber.Map{"get": fiber.Map{
				"summary":   "Service health",
				"responses": fiber.Map{"200": fiber.Map{"description": "health report"}},
			}},
		},
		"components": fiber.Map{
			"securitySchemes": fiber.Map{"bearerAuth": fiber.Map{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}},
			"schemas": fiber.Map{
				"LoginRequest": fiber.Map{"type": "object", "required": []string{"subject", "secret"}, "properties": fiber.Map{
					"subject": fiber.Map{"type": "string"},
					"secret":  fiber.Map{"type": "string"},
				}},
				"TokenResponse": fiber.Map{"type": "object", "properties": fiber.Map{
					"token":              fiber.Map{"type": "string"},
					"type":               fiber.Map{"type": "string", "example": "Bearer"},
					"subject":            fiber.Map{"type": "string"},
					"principal_id":       fiber.Map{"type": "integer", "format": "int64"},
					"expires_in_seconds": fiber.Map{"type": "integer", "format": "int64"},
				}},
			},
		},
	}}
}

// OpenAPI handles GET /v3/api-docs.
func (h *DocsHandler) OpenAPI(c *fiber.Ctx) error {
	return c.JSON(h.document)
}
