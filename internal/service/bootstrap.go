package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/auth"
	"github.com/Jack-Libra/coffeenote/internal/config"
	"github.com/Jack-Libra/coffeenote/internal/domain"
	"github.com/Jack-Libra/coffeenote/internal/repository"
)

// SeedPrincipals creates the configured bootstrap principals that do not exist yet.
func SeedPrincipals(ctx context.Context, repo repository.PrincipalRepository, seeds []config.BootstrapPrincipal, bcryptCost int, logger *zap.Logger) error {
	for _, seed := range seeds {
		hash, err := auth.HashPassword(seed.Secret, bcryptCost)
		if err != nil {
			return fmt.Errorf("hash secret for %s: %w", seed.Subject, err)
		}
		record := &domain.PrincipalRecord{
			Principal:  domain.Principal{ID: seed.ID, Subject: seed.Subject},
			SecretHash: hash,
		}
		created, err := repo.CreateIfMissing(ctx, record)
		if err != nil {
			return fmt.Errorf("seed principal %s: %w", seed.Subject, err)
		}
		if created {
			logger.Info("bootstrap principal created", zap.String("subject", seed.Subject), zap.Int64("id", seed.ID))
		}
	}
	return nil
}
