package http

import (
	"context"

	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	jwtinfra "github.com/marque-api/internal/infrastructure/jwt"
	"github.com/marque-api/internal/infrastructure/metrics"
	"github.com/marque-api/internal/infrastructure/sns"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StoreRegistry is the minimal interface the router requires from the per-market connection registry.
type StoreRegistry interface {
	WithHandle(ctx context.Context, market domain.Market, fn func(*database.Handle) error) error
	Stats() []database.ConnectionStats
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Registry     StoreRegistry
	SessionStore session.Store
	SMSSender    sns.SMSSender
	JWTProvider  *jwtinfra.Provider
	Metrics      *metrics.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}
