package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/application/verification"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/marque-api/internal/infrastructure/jwt"
	"github.com/marque-api/internal/infrastructure/logger"
	"github.com/marque-api/internal/infrastructure/memstore"
	"github.com/marque-api/internal/infrastructure/metrics"
	redisinfra "github.com/marque-api/internal/infrastructure/redis"
	"github.com/marque-api/internal/infrastructure/sns"
	transporthttp "github.com/marque-api/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New(logger.ForEnvironment(cfg.AppEnv, cfg.LogLevel))
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	// Engines open lazily on first use; nothing here touches the stores.
	regOpts := []database.Option{
		database.WithLogger(zl.Named("database")),
		database.WithGormLogger(logger.NewGormLogger(zl.Named("gorm"), logger.GormLevel(cfg.SQLLogLevel))),
		database.WithMetrics(m),
	}
	if cfg.AutoMigrate {
		regOpts = append(regOpts, database.WithMigrations(database.Migrate))
	}
	registry := database.NewRegistry(cfg.Stores(), regOpts...)
	defer func() {
		if err := registry.Close(); err != nil {
			zl.Warn("closing stores", zap.Error(err))
		}
	}()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	smsSender, err := sns.NewSender(cfg, zl.Named("sms"))
	if err != nil {
		return fmt.Errorf("sms sender: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	sessions, err := sessionStore(ctx, cfg, zl, g, gctx)
	if err != nil {
		return err
	}

	limiters := transporthttp.NewLimiters(cfg)
	g.Go(func() error { return limiters.IP.Run(gctx) })
	if limiters.Phone != nil {
		g.Go(func() error { return limiters.Phone.Run(gctx) })
	}

	sweeper := verification.NewSweeper(
		verification.NewService(registry,
			verification.WithCodeTTL(cfg.VerificationCodeTTL),
			verification.WithLogger(zl.Named("verification")),
			verification.WithMetrics(m)),
		cfg.VerificationSweep, zl.Named("sweeper"))
	g.Go(func() error { return sweeper.Run(gctx) })

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Registry:     registry,
		SessionStore: sessions,
		SMSSender:    smsSender,
		JWTProvider:  jwtProvider,
		Metrics:      m,
		Gatherer:     promReg,
		Logger:       zl,
	}, limiters)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		zl.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zl.Info("server stopped")
	return nil
}

// sessionStore picks the operator session backend. Background loops it needs join g.
func sessionStore(ctx context.Context, cfg *config.Config, zl *zap.Logger, g *errgroup.Group, gctx context.Context) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		store := memstore.NewSessionStore()
		g.Go(func() error { return store.Run(gctx, time.Minute) })
		return store, nil
	case "redis":
		client, err := redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			return client.Close()
		})
		return redisinfra.NewSessionStore(client), nil
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoSessionsTable, zl.Named("dynamo"))
		return dynamo.NewSessionStore(client, cfg.DynamoSessionsTable), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
