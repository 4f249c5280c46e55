package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/Jack-Libra/coffeenote/internal/api/http"
	"github.com/Jack-Libra/coffeenote/internal/api/http/handlers"
	"github.com/Jack-Libra/coffeenote/internal/auth"
	"github.com/Jack-Libra/coffeenote/internal/config"
	"github.com/Jack-Libra/coffeenote/internal/events"
	"github.com/Jack-Libra/coffeenote/internal/observability"
	"github.com/Jack-Libra/coffeenote/internal/persistence"
	"github.com/Jack-Libra/coffeenote/internal/repository"
	"github.com/Jack-Libra/coffeenote/internal/service"
	"github.com/Jack-Libra/coffeenote/internal/worker"
)

func main() {
	envFiles := pflag.StringSlice("env-file", nil, "environment files to load before reading configuration")
	pflag.Parse()

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signingKey, err := auth.NewSigningKey(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("invalid signing key", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the development signing secret; set AUTH_JWT_SECRET")
	}
	identityMode, err := auth.ParseIdentityMode(cfg.Auth.IdentityMode)
	if err != nil {
		logger.Fatal("invalid identity mode", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var principals repository.PrincipalRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		principals = repository.NewPrincipalRepository(pg.PoolHandle())
	} else {
		principals = repository.NewMemoryPrincipalRepository()
	}

	if err := service.SeedPrincipals(ctx, principals, cfg.Auth.BootstrapPrincipals, cfg.Auth.BcryptCost, logger); err != nil {
		logger.Fatal("failed to seed principals", zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("coffeenote")

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(dispatcher, logger)

	tokens := auth.NewManager(
		auth.NewCodec(signingKey),
		cfg.Auth.TokenTTL,
		auth.WithRefreshGrace(cfg.Auth.RefreshGrace),
	)
	authService := service.NewAuthService(service.AuthDependencies{
		Verifier:   auth.NewStoreVerifier(principals, cfg.Auth.BcryptCost, logger),
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	lookup := repository.NewCachedPrincipalLookup(principals, redis.Client, cfg.Auth.PrincipalCacheTTL, logger)
	authMiddleware, err := auth.NewIdentityMiddleware(tokens,
		auth.WithAllowList(auth.AllowList{Prefixes: cfg.Auth.PublicPrefixes, Exact: cfg.Auth.PublicPaths}),
		auth.WithPrincipalLookup(lookup),
		auth.WithMode(identityMode),
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("failed to build auth middleware", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Me:             handlers.NewMeHandler(),
		Docs:           handlers.NewDocsHandler(cfg.App.Name, cfg.App.Version),
		AuthMiddleware: authMiddleware,
		Gatherer:       prometheus.DefaultGatherer,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
