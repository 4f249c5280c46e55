package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/observability"
	"github.com/Jack-Libra/coffeenote/internal/repository"
)

// IdentityMode selects how much the middleware trusts token claims.
type IdentityMode string

const (
	// ModeLookup re-resolves the principal by subject and cross-checks the token against it.
	ModeLookup IdentityMode = "lookup"
	// ModeClaims trusts signed claims alone. Lower assurance: a deleted
	// principal keeps access until its tokens expire.
	ModeClaims IdentityMode = "claims"
)

// ParseIdentityMode validates a configured mode name.
func ParseIdentityMode(value string) (IdentityMode, error) {
	switch IdentityMode(value) {
	case "", ModeLookup:
		return ModeLookup, nil
	case ModeClaims:
		return ModeClaims, nil
	default:
		return "", fmt.Errorf("unknown identity mode %q", value)
	}
}

// PrincipalLookup resolves the current identity for a subject.
type PrincipalLookup interface {
	LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error)
}

// MiddlewareOption customizes IdentityMiddleware.
type MiddlewareOption func(*IdentityMiddleware)

// WithAllowList sets the paths that skip token resolution.
func WithAllowList(allow AllowList) MiddlewareOption {
	return func(m *IdentityMiddleware) { m.allow = allow }
}

// WithPrincipalLookup sets the store used in ModeLookup.
func WithPrincipalLookup(lookup PrincipalLookup) MiddlewareOption {
	return func(m *IdentityMiddleware) { m.lookup = lookup }
}

// WithMode sets the identity mode.
func WithMode(mode IdentityMode) MiddlewareOption {
	return func(m *IdentityMiddleware) { m.mode = mode }
}

// WithLogger sets the logger used for rejected tokens.
func WithLogger(logger *zap.Logger) MiddlewareOption {
	return func(m *IdentityMiddleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) MiddlewareOption {
	return func(m *IdentityMiddleware) { m.metrics = metrics }
}

// IdentityMiddleware resolves bearer tokens into a RequestIdentity. It never
// rejects a request: routes that need an identity enforce it with RequireIdentity.
type IdentityMiddleware struct {
	tokens  *Manager
	allow   AllowList
	lookup  PrincipalLookup
	mode    IdentityMode
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewIdentityMiddleware constructs middleware.
func NewIdentityMiddleware(tokens *Manager, opts ...MiddlewareOption) (*IdentityMiddleware, error) {
	m := &IdentityMiddleware{
		tokens: tokens,
		allow:  DefaultAllowList(),
		mode:   ModeLookup,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if m.mode == ModeLookup && m.lookup == nil {
		return nil, errors.New("principal lookup is required in lookup mode")
	}
	return m, nil
}

// Handle attaches the caller identity when a usable bearer token is present.
func (m *IdentityMiddleware) Handle(c *fiber.Ctx) error {
	if m.allow.Matches(c.Path()) {
		return c.Next()
	}

	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.metrics.RecordIdentity("anonymous")
		return c.Next()
	}

	identity, err := m.resolve(c.UserContext(), token)
	if err != nil {
		outcome := rejectionOutcome(err)
		m.logger.Warn("bearer token rejected",
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		m.metrics.RecordIdentity(outcome)
		return c.Next()
	}

	c.Locals(identityKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
	m.metrics.RecordIdentity("authenticated")
	return c.Next()
}

func (m *IdentityMiddleware) resolve(ctx context.Context, token string) (*RequestIdentity, error) {
	claims, err := m.tokens.Check(token)
	if err != nil {
		return nil, err
	}
	if m.mode == ModeClaims {
		return &RequestIdentity{PrincipalID: claims.PrincipalID, Subject: claims.Subject}, nil
	}

	principal, err := m.lookup.LookupBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if _, err := m.tokens.CheckForSubject(token, principal.Subject); err != nil {
		return nil, err
	}
	if principal.ID != claims.PrincipalID {
		return nil, ErrSubjectMismatch
	}
	return &RequestIdentity{PrincipalID: principal.ID, Subject: principal.Subject}, nil
}

func rejectionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnknownPrincipal):
		return "unknown_principal"
	case errors.Is(err, ErrSubjectMismatch):
		return "subject_mismatch"
	case errors.Is(err, ErrExpired), errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrUnsupported), errors.Is(err, ErrMalformed):
		return StatusOf(err).String()
	default:
		return "lookup_failed"
	}
}
