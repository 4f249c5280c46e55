package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jack-Libra/coffeenote/internal/auth"
	"github.com/Jack-Libra/coffeenote/internal/config"
	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/events"
	"github.com/Jack-Libra/coffeenote/internal/repository"
)

const testSecret = "service-test-secret-0123456789abcdefghij"

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	service  *AuthService
	tokens   *auth.Manager
	recorder *eventRecorder
	now      time.Time
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewMemoryPrincipalRepository()
	require.NoError(t, SeedPrincipals(context.Background(), repo, []config.BootstrapPrincipal{
		{ID: 1, Subject: "testuser", Secret: "password"},
		{ID: 2, Subject: "admin", Secret: "admin"},
	}, bcrypt.MinCost, zap.NewNop()))

	key, err := auth.NewSigningKey(testSecret)
	require.NoError(t, err)

	f := &fixture{
		recorder: &eventRecorder{},
		now:      time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	f.tokens = auth.NewManager(auth.NewCodec(key), 24*time.Hour,
		auth.WithClock(func() time.Time { return f.clock() }),
		auth.WithRefreshGrace(time.Hour),
	)

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, eventType := range []events.EventType{
		events.EventLoginSucceeded, events.EventLoginRejected,
		events.EventTokenRefreshed, events.EventRefreshDenied, events.EventLogout,
	} {
		dispatcher.Subscribe(eventType, f.recorder.handle)
	}

	f.service = NewAuthService(AuthDependencies{
		Verifier:   auth.NewStoreVerifier(repo, bcrypt.MinCost, nil),
		Tokens:     f.tokens,
		Dispatcher: dispatcher,
	})
	return f
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.service.Login(ctx, domain.Credential{Subject: "admin", Secret: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", grant.Subject)
	assert.Equal(t, int64(2), grant.PrincipalID)
	assert.Equal(t, "Bearer", grant.Type)
	assert.Equal(t, int64(86400), grant.ExpiresInSeconds)
	assert.True(t, f.tokens.ValidateForSubject(grant.Token, "admin"))

	_, err = f.service.Login(ctx, domain.Credential{Subject: "admin", Secret: "nope"})
	assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)

	_, err = f.service.Login(ctx, domain.Credential{Subject: "nobody", Secret: "admin"})
	assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)

	assert.Equal(t, []events.EventType{
		events.EventLoginSucceeded,
		events.EventLoginRejected,
		events.EventLoginRejected,
	}, f.recorder.types())
}

func TestAuthService_Validate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.service.Login(ctx, domain.Credential{Subject: "testuser", Secret: "password"})
	require.NoError(t, err)

	result := f.service.Validate(ctx, grant.Token)
	assert.True(t, result.Valid)
	assert.Equal(t, auth.StatusValid, result.Status)
	assert.Equal(t, "testuser", result.Subject)
	assert.Equal(t, int64(1), result.PrincipalID)
	assert.Equal(t, int64(86400), result.RemainingSeconds)

	f.now = f.now.Add(25 * time.Hour)
	result = f.service.Validate(ctx, grant.Token)
	assert.False(t, result.Valid)
	assert.Equal(t, auth.StatusExpired, result.Status)

	result = f.service.Validate(ctx, "garbage")
	assert.False(t, result.Valid)
	assert.Equal(t, auth.StatusMalformed, result.Status)
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.service.Login(ctx, domain.Credential{Subject: "admin", Secret: "admin"})
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	refreshed, err := f.service.Refresh(ctx, grant.Token)
	require.NoError(t, err)
	assert.NotEqual(t, grant.Token, refreshed.Token)
	assert.Equal(t, "admin", refreshed.Subject)
	assert.Equal(t, int64(2), refreshed.PrincipalID)

	f.now = f.now.Add(48 * time.Hour)
	_, err = f.service.Refresh(ctx, refreshed.Token)
	assert.ErrorIs(t, err, auth.ErrRefreshFailed)
	assert.ErrorIs(t, err, auth.ErrRefreshWindowExceeded)

	_, err = f.service.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrRefreshFailed)

	assert.Equal(t, []events.EventType{
		events.EventLoginSucceeded,
		events.EventTokenRefreshed,
		events.EventRefreshDenied,
		events.EventRefreshDenied,
	}, f.recorder.types())
}

func TestAuthService_LogoutIsAdvisory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.service.Login(ctx, domain.Credential{Subject: "admin", Secret: "admin"})
	require.NoError(t, err)

	f.service.Logout(ctx, grant.Token)
	assert.True(t, f.service.Validate(ctx, grant.Token).Valid)

	f.recorder.mu.Lock()
	last := f.recorder.events[len(f.recorder.events)-1]
	f.recorder.mu.Unlock()
	assert.Equal(t, events.EventLogout, last.Type)
	assert.Equal(t, "admin", last.Subject)
	assert.Equal(t, events.LogoutPayload{TokenStatus: "valid"}, last.Payload)
	assert.NotEmpty(t, last.ID)
}

func TestSeedPrincipals_Idempotent(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryPrincipalRepository()
	seeds := []config.BootstrapPrincipal{{ID: 1, Subject: "testuser", Secret: "password"}}
	ctx := context.Background()

	require.NoError(t, SeedPrincipals(ctx, repo, seeds, bcrypt.MinCost, zap.NewNop()))
	first, err := repo.GetBySubject(ctx, "testuser")
	require.NoError(t, err)

	require.NoError(t, SeedPrincipals(ctx, repo, seeds, bcrypt.MinCost, zap.NewNop()))
	second, err := repo.GetBySubject(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, first.SecretHash, second.SecretHash)
}

func TestAuthService_GrantReportsFullLifetimeOnRealClock(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryPrincipalRepository()
	require.NoError(t, SeedPrincipals(context.Background(), repo, []config.BootstrapPrincipal{
		{ID: 2, Subject: "admin", Secret: "admin"},
	}, bcrypt.MinCost, zap.NewNop()))
	key, err := auth.NewSigningKey(testSecret)
	require.NoError(t, err)
	tokens := auth.NewManager(auth.NewCodec(key), 24*time.Hour)

	svc := NewAuthService(AuthDependencies{
		Verifier: auth.NewStoreVerifier(repo, bcrypt.MinCost, nil),
		Tokens:   tokens,
	})

	grant, err := svc.Login(context.Background(), domain.Credential{Subject: "admin", Secret: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(86400), grant.ExpiresInSeconds)

	refreshed, err := svc.Refresh(context.Background(), grant.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(86400), refreshed.ExpiresInSeconds)
	assert.NotEqual(t, grant.Token, refreshed.Token)
}
