package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/repository"
)

// CredentialVerifier checks a subject/secret pair. Implementations may block
// and must only be called from the login path.
type CredentialVerifier interface {
	Verify(ctx context.Context, subject, secret string) (domain.Principal, error)
}

// PrincipalStore loads stored principals by subject.
type PrincipalStore interface {
	GetBySubject(ctx context.Context, subject string) (*domain.PrincipalRecord, error)
}

// StoreVerifier verifies credentials against bcrypt digests held in a PrincipalStore.
type StoreVerifier struct {
	store     PrincipalStore
	dummyHash string
	logger    *zap.Logger
}

// NewStoreVerifier constructs a verifier. bcryptCost sizes the digest used to
// keep unknown-subject rejections as slow as wrong-secret rejections.
func NewStoreVerifier(store PrincipalStore, bcryptCost int, logger *zap.Logger) *StoreVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummy, err := HashPassword("unknown-principal", bcryptCost)
	if err != nil {
		logger.Warn("unable to prepare dummy digest", zap.Error(err))
	}
	return &StoreVerifier{store: store, dummyHash: dummy, logger: logger}
}

// Verify returns the principal for valid credentials or ErrAuthenticationFailed.
func (v *StoreVerifier) Verify(ctx context.Context, subject, secret string) (domain.Principal, error) {
	if subject == "" || secret == "" {
		return domain.Principal{}, ErrAuthenticationFailed
	}

	record, err := v.store.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = ComparePassword(v.dummyHash, secret)
			return domain.Principal{}, ErrAuthenticationFailed
		}
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	if err := ComparePassword(record.SecretHash, secret); err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			return domain.Principal{}, ErrAuthenticationFailed
		}
		return domain.Principal{}, fmt.Errorf("compare secret: %w", err)
	}
	return record.Principal, nil
}
