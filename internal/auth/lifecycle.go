package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

const (
	// DefaultTokenTTL is used when no positive TTL is configured.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultRefreshGrace bounds how long after expiry a token may still be refreshed.
	DefaultRefreshGrace = 7 * 24 * time.Hour
)

// TokenStatus classifies a presented token.
type TokenStatus int

const (
	StatusValid TokenStatus = iota
	StatusExpired
	StatusMalformed
	StatusSignatureInvalid
	StatusUnsupported
)

func (s TokenStatus) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusSignatureInvalid:
		return "signature_invalid"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "malformed"
	}
}

// StatusOf maps an error returned by Check or Decode to a TokenStatus.
func StatusOf(err error) TokenStatus {
	switch {
	case err == nil:
		return StatusValid
	case errors.Is(err, ErrExpired):
		return StatusExpired
	case errors.Is(err, ErrSignatureInvalid):
		return StatusSignatureInvalid
	case errors.Is(err, ErrUnsupported):
		return StatusUnsupported
	default:
		return StatusMalformed
	}
}

// IssuedToken is a freshly minted token with the claims it carries.
type IssuedToken struct {
	Token  string
	Claims *Claims
}

// Principal returns the identity the token was minted for.
func (t *IssuedToken) Principal() domain.Principal {
	return t.Claims.Principal()
}

// ExpiresAt returns the token expiry.
func (t *IssuedToken) ExpiresAt() time.Time {
	return t.Claims.ExpiresAtTime()
}

// ExpiresIn returns the whole seconds of validity the token was minted with.
func (t *IssuedToken) ExpiresIn() int64 {
	return wholeSecondsBetween(t.Claims.IssuedAtTime(), t.Claims.ExpiresAtTime())
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRefreshGrace sets how long after expiry a token remains refreshable.
// A negative grace removes the bound entirely.
func WithRefreshGrace(grace time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshGrace = grace
	}
}

// Manager issues, inspects and refreshes tokens.
type Manager struct {
	codec        *Codec
	ttl          time.Duration
	refreshGrace time.Duration
	now          func() time.Time
}

// NewManager builds a lifecycle manager around codec.
func NewManager(codec *Codec, ttl time.Duration, opts ...ManagerOption) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &Manager{
		codec:        codec,
		ttl:          ttl,
		refreshGrace: DefaultRefreshGrace,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a token for principal valid from now for the configured TTL.
func (m *Manager) Issue(principal domain.Principal) (*IssuedToken, error) {
	return m.issueAt(principal, m.now())
}

func (m *Manager) issueAt(principal domain.Principal, issuedAt time.Time) (*IssuedToken, error) {
	token, err := m.codec.Encode(principal, issuedAt, m.ttl)
	if err != nil {
		return nil, err
	}
	claims, err := m.codec.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("decode issued token: %w", err)
	}
	return &IssuedToken{Token: token, Claims: claims}, nil
}

// Check decodes token and rejects it with ErrExpired once its expiry has passed.
func (m *Manager) Check(token string) (*Claims, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if m.now().After(claims.ExpiresAtTime()) {
		return claims, ErrExpired
	}
	return claims, nil
}

// CheckForSubject is Check plus an exact, case-sensitive subject comparison.
func (m *Manager) CheckForSubject(token, expectedSubject string) (*Claims, error) {
	claims, err := m.Check(token)
	if err != nil {
		return claims, err
	}
	if claims.Subject != expectedSubject {
		return claims, ErrSubjectMismatch
	}
	return claims, nil
}

// Classify reports whether token is valid, expired or broken.
func (m *Manager) Classify(token string) TokenStatus {
	_, err := m.Check(token)
	return StatusOf(err)
}

// IsExpired reports true for expired tokens and for any token that fails to decode.
func (m *Manager) IsExpired(token string) bool {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return true
	}
	return m.now().After(claims.ExpiresAtTime())
}

// Validate reports whether token decodes and is unexpired.
func (m *Manager) Validate(token string) bool {
	_, err := m.Check(token)
	return err == nil
}

// ValidateForSubject reports whether token is valid and was minted for expectedSubject.
func (m *Manager) ValidateForSubject(token, expectedSubject string) bool {
	_, err := m.CheckForSubject(token, expectedSubject)
	return err == nil
}

// Refresh mints a new token carrying the subject and principal id of token.
// The old token may already be expired as long as it is still inside the
// refresh grace window. The new token is issued at least one millisecond after
// the old one, so its expiry is strictly later even within the same millisecond.
func (m *Manager) Refresh(token string) (*IssuedToken, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if m.refreshGrace >= 0 {
		deadline := claims.ExpiresAtTime().Add(m.refreshGrace)
		if m.now().After(deadline) {
			return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrRefreshWindowExceeded)
		}
	}

	issuedAt := m.now()
	if floor := claims.IssuedAtTime().Add(time.Millisecond); issuedAt.Before(floor) {
		issuedAt = floor
	}
	issued, err := m.issueAt(claims.Principal(), issuedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return issued, nil
}

// RemainingSeconds returns whole seconds until expiry, or 0 when the token is
// expired or cannot be decoded. Both instants are taken at millisecond
// resolution, matching the precision of the exp claim.
func (m *Manager) RemainingSeconds(token string) int64 {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return 0
	}
	return wholeSecondsBetween(m.now(), claims.ExpiresAtTime())
}

func wholeSecondsBetween(from, to time.Time) int64 {
	remaining := to.UnixMilli() - from.UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return remaining / 1000
}
