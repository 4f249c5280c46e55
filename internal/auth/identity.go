package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// RequestIdentity is the caller established for a single request.
type RequestIdentity struct {
	PrincipalID int64  `json:"principal_id"`
	Subject     string `json:"subject"`
}

// WithIdentity stores identity in ctx.
func WithIdentity(ctx context.Context, identity *RequestIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFrom extracts the identity stored by WithIdentity. Handlers and
// services that only hold a context.Context use this accessor.
func IdentityFrom(ctx context.Context) (*RequestIdentity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*RequestIdentity)
	return identity, ok && identity != nil
}

// IdentityFromContext retrieves the identity attached by the middleware.
func IdentityFromContext(c *fiber.Ctx) (*RequestIdentity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*RequestIdentity)
	return identity, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingOrMalformedHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], domain.TokenType) {
		return "", ErrMissingOrMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingOrMalformedHeader
	}
	return token, nil
}

// AllowList names request paths that never go through token resolution.
type AllowList struct {
	Prefixes []string
	Exact    []string
}

// DefaultAllowList covers authentication, public, health, metrics and API documentation endpoints.
func DefaultAllowList() AllowList {
	return AllowList{
		Prefixes: []string{"/api/auth/", "/api/public/", "/swagger-", "/v3/api-docs"},
		Exact:    []string{"/api/health", "/metrics"},
	}
}

// Matches reports whether path bypasses authentication.
func (a AllowList) Matches(path string) bool {
	for _, exact := range a.Exact {
		if path == exact {
			return true
		}
	}
	for _, prefix := range a.Prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
