package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/auth"
	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/events"
	"github.com/Jack-Libra/coffeenote/internal/observability"
)

// TokenGrant is the result of a successful login or refresh.
type TokenGrant struct {
	Token            string
	Type             string
	Subject          string
	PrincipalID      int64
	ExpiresInSeconds int64
}

// ValidationResult describes a presented token.
type ValidationResult struct {
	Valid            bool
	Status           auth.TokenStatus
	Subject          string
	PrincipalID      int64
	RemainingSeconds int64
}

// AuthService coordinates login, refresh, validation and logout flows.
type AuthService struct {
	verifier   auth.CredentialVerifier
	tokens     *auth.Manager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Verifier   auth.CredentialVerifier
	Tokens     *auth.Manager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		verifier:   deps.Verifier,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Login verifies credentials and issues a token. Rejected credentials yield
// auth.ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, cred domain.Credential) (*TokenGrant, error) {
	principal, err := s.verifier.Verify(ctx, cred.Subject, cred.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			s.metrics.RecordLogin("rejected")
			s.logger.Info("login rejected", zap.String("subject", cred.Subject))
			s.publish(ctx, events.Event{
				Type:    events.EventLoginRejected,
				Subject: cred.Subject,
				Payload: events.RejectionPayload{Reason: "invalid_credentials"},
			})
			return nil, auth.ErrAuthenticationFailed
		}
		s.metrics.RecordLogin("error")
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	issued, err := s.tokens.Issue(principal)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("login succeeded",
		zap.String("subject", principal.Subject),
		zap.Int64("principal_id", principal.ID),
	)
	s.publish(ctx, tokenEvent(events.EventLoginSucceeded, issued))
	return newTokenGrant(issued), nil
}

// Refresh exchanges token for a newly issued one. Failures wrap auth.ErrRefreshFailed.
func (s *AuthService) Refresh(ctx context.Context, token string) (*TokenGrant, error) {
	issued, err := s.tokens.Refresh(token)
	if err != nil {
		s.metrics.RecordRefresh("rejected")
		s.logger.Warn("token refresh rejected", zap.Error(err))
		reason := auth.StatusOf(err).String()
		if errors.Is(err, auth.ErrRefreshWindowExceeded) {
			reason = "refresh_window_exceeded"
		}
		s.publish(ctx, events.Event{
			Type:    events.EventRefreshDenied,
			Payload: events.RejectionPayload{Reason: reason},
		})
		return nil, err
	}
	s.metrics.RecordRefresh("success")
	s.publish(ctx, tokenEvent(events.EventTokenRefreshed, issued))
	return newTokenGrant(issued), nil
}

// Validate reports whether token is currently usable.
func (s *AuthService) Validate(_ context.Context, token string) ValidationResult {
	claims, err := s.tokens.Check(token)
	if err != nil {
		return ValidationResult{Status: auth.StatusOf(err)}
	}
	return ValidationResult{
		Valid:            true,
		Status:           auth.StatusValid,
		Subject:          claims.Subject,
		PrincipalID:      claims.PrincipalID,
		RemainingSeconds: s.tokens.RemainingSeconds(token),
	}
}

// Logout is advisory: tokens are stateless and stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, token string) {
	status := s.tokens.Classify(token)
	event := events.Event{
		Type:    events.EventLogout,
		Payload: events.LogoutPayload{TokenStatus: status.String()},
	}
	fields := []zap.Field{zap.String("status", status.String())}
	if claims, err := s.tokens.Check(token); err == nil {
		event.Subject = claims.Subject
		event.PrincipalID = claims.PrincipalID
		fields = append(fields, zap.String("subject", claims.Subject))
	}
	s.logger.Info("logout acknowledged", fields...)
	s.publish(ctx, event)
}

func newTokenGrant(issued *auth.IssuedToken) *TokenGrant {
	principal := issued.Principal()
	return &TokenGrant{
		Token:            issued.Token,
		Type:             domain.TokenType,
		Subject:          principal.Subject,
		PrincipalID:      principal.ID,
		ExpiresInSeconds: issued.ExpiresIn(),
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish auth event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func tokenEvent(eventType events.EventType, issued *auth.IssuedToken) events.Event {
	principal := issued.Principal()
	return events.Event{
		Type:        eventType,
		Subject:     principal.Subject,
		PrincipalID: principal.ID,
		Payload: events.TokenPayload{
			TokenID:   issued.Claims.ID,
			ExpiresAt: issued.ExpiresAt(),
		},
	}
}
