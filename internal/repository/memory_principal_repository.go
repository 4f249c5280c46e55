package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

type memoryPrincipalRepository struct {
	mu        sync.RWMutex
	bySubject map[string]domain.PrincipalRecord
	ids       map[int64]struct{}
}

// NewMemoryPrincipalRepository returns a process-local store used when no database is configured.
func NewMemoryPrincipalRepository() PrincipalRepository {
	return &memoryPrincipalRepository{
		bySubject: make(map[string]domain.PrincipalRecord),
		ids:       make(map[int64]struct{}),
	}
}

func (r *memoryPrincipalRepository) CreateIfMissing(_ context.Context, record *domain.PrincipalRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySubject[record.Subject]; exists {
		return false, nil
	}
	if _, exists := r.ids[record.ID]; exists {
		return false, nil
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.bySubject[record.Subject] = *record
	r.ids[record.ID] = struct{}{}
	return true, nil
}

func (r *memoryPrincipalRepository) GetBySubject(_ context.Context, subject string) (*domain.PrincipalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.bySubject[subject]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (r *memoryPrincipalRepository) LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error) {
	record, err := r.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	principal := record.Principal
	return &principal, nil
}
