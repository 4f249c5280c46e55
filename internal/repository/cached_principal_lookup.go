package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

const principalCachePrefix = "coffeenote:principal:"

// PrincipalLookup resolves the public identity of a subject.
type PrincipalLookup interface {
	LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error)
}

type cachedPrincipalLookup struct {
	next   PrincipalLookup
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

type cachedPrincipal struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
}

// NewCachedPrincipalLookup serves lookups from Redis and falls through to next
// on a miss. Redis failures are logged and never fail the lookup. Unknown
// subjects are not cached.
func NewCachedPrincipalLookup(next PrincipalLookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) PrincipalLookup {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedPrincipalLookup{next: next, client: client, ttl: ttl, logger: logger}
}

func (l *cachedPrincipalLookup) LookupBySubject(ctx context.Context, subject string) (*domain.Principal, error) {
	key := principalCachePrefix + subject

	raw, err := l.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedPrincipal
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil && cached.Subject == subject {
			return &domain.Principal{ID: cached.ID, Subject: cached.Subject}, nil
		}
		l.logger.Warn("discarding unreadable principal cache entry", zap.String("subject", subject))
	case errors.Is(err, redis.Nil):
	default:
		l.logger.Warn("principal cache read failed", zap.String("subject", subject), zap.Error(err))
	}

	principal, err := l.next.LookupBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedPrincipal{ID: principal.ID, Subject: principal.Subject})
	if err == nil {
		if err := l.client.Set(ctx, key, payload, l.ttl).Err(); err != nil {
			l.logger.Warn("principal cache write failed", zap.String("subject", subject), zap.Error(err))
		}
	}
	return principal, nil
}
