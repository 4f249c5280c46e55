package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

// ErrNotFound is returned when no principal matches.
var ErrNotFound = errors.New("principal not found")

// PrincipalRepository defines persistence access for principals.
type PrincipalRepository interface {
	// CreateIfMissing inserts record unless its subject already exists and
	// reports whether a row was written.
	CreateIfMissing(ctx context.Context, record *domain.PrincipalRecord) (bool, error)
	GetBySubject(ctx context.Context, subject string) (*domain.PrincipalRecord, error)
	LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error)
}

type principalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository returns a Postgres-backed implementation.
func NewPrincipalRepository(pool *pgxpool.Pool) PrincipalRepository {
	return &principalRepository{pool: pool}
}

func (r *principalRepository) CreateIfMissing(ctx context.Context, record *domain.PrincipalRecord) (bool, error) {
	const query = `
        INSERT INTO principals (id, subject, secret_hash)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.Subject,
		record.SecretHash,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *principalRepository) GetBySubject(ctx context.Context, subject string) (*domain.PrincipalRecord, error) {
	const query = `
        SELECT id, subject, secret_hash, created_at, updated_at
        FROM principals WHERE subject=$1`

	var record domain.PrincipalRecord
	if err := r.pool.QueryRow(ctx, query, subject).Scan(
		&record.ID,
		&record.Subject,
		&record.SecretHash,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *principalRepository) LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error) {
	const query = `SELECT id, subject FROM principals WHERE subject=$1`

	var principal domain.Principal
	if err := r.pool.QueryRow(ctx, query, subject).Scan(&principal.ID, &principal.Subject); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &principal, nil
}
