// Package database owns the per-market relational stores.
//
// Every market has its own gorm engine and connection pool. Engines are created lazily on
// first use and cached for the lifetime of the Registry. Callers never touch an engine
// directly: they borrow a Handle bound to one pooled connection through WithHandle.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DialectorFunc builds the gorm dialector for one market's store.
type DialectorFunc func(market domain.Market, cfg config.StoreConfig) (gorm.Dialector, error)

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l *zap.Logger) Option { return func(r *Registry) { r.log = l } }

func WithGormLogger(l gormlogger.Interface) Option { return func(r *Registry) { r.gormLog = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Registry) { r.metrics = m } }

func WithDialector(f DialectorFunc) Option { return func(r *Registry) { r.dialector = f } }

// WithMigrations runs fn once every time an engine is created.
func WithMigrations(fn func(*gorm.DB) error) Option { return func(r *Registry) { r.migrate = fn } }

// Registry hands out scoped connections to each market's store.
// Two registries never share engines.
type Registry struct {
	stores    map[domain.Market]config.StoreConfig
	dialector DialectorFunc
	migrate   func(*gorm.DB) error
	log       *zap.Logger
	gormLog   gormlogger.Interface
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	engines map[domain.Market]*gorm.DB
	group   singleflight.Group
}

func NewRegistry(stores map[domain.Market]config.StoreConfig, opts ...Option) *Registry {
	r := &Registry{
		stores:    stores,
		dialector: defaultDialector,
		log:       zap.NewNop(),
		gormLog:   gormlogger.Discard,
		engines:   make(map[domain.Market]*gorm.DB),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle is an exclusively owned, short-lived access point to one market's store.
// It is only valid inside the WithHandle callback that produced it.
type Handle struct {
	market domain.Market
	db     *gorm.DB
}

func (h *Handle) Market() domain.Market { return h.market }

// DB returns the gorm session pinned to the handle's connection.
func (h *Handle) DB() *gorm.DB { return h.db }

// Transaction runs fn inside a database transaction on the handle's connection.
func (h *Handle) Transaction(fn func(tx *Handle) error) error {
	return h.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Handle{market: h.market, db: tx})
	})
}

func (h *Handle) Users() *UserRepo { return &UserRepo{db: h.db, market: h.market} }

func (h *Handle) Admins() *AdminRepo { return &AdminRepo{db: h.db, market: h.market} }

func (h *Handle) Verifications() *VerificationRepo {
	return &VerificationRepo{db: h.db, market: h.market}
}

// WithHandle acquires one pooled connection for market, runs fn with it and returns the
// connection to the pool on every exit path, including panics and cancellation.
// Acquisition failures are reported as domain.ErrStoreUnavailable and are never retried.
func (r *Registry) WithHandle(ctx context.Context, market domain.Market, fn func(*Handle) error) error {
	engine, err := r.engine(ctx, market)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return r.unavailable(market, err)
	}
	if err != nil {
		r.log.Error("market store setup failed", zap.String("market", market.String()), zap.Error(err))
		return err
	}
	sqlDB, err := engine.DB()
	if err != nil {
		return r.unavailable(market, fmt.Errorf("%s store: %v: %w", market, err, domain.ErrStoreUnavailable))
	}

	acquireCtx := ctx
	if timeout := r.stores[market].AcquireTimeout; timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn, err := sqlDB.Conn(acquireCtx)
	if err != nil {
		return r.unavailable(market, fmt.Errorf("acquire %s connection: %v: %w", market, err, domain.ErrStoreUnavailable))
	}
	defer conn.Close()

	db := engine.Session(&gorm.Session{NewDB: true, Context: ctx})
	db.Statement.ConnPool = conn
	return fn(&Handle{market: market, db: db})
}

func (r *Registry) unavailable(market domain.Market, err error) error {
	r.metrics.Unavailable(market)
	r.log.Error("market store unavailable", zap.String("market", market.String()), zap.Error(err))
	return err
}

// engine returns the cached engine for market, creating it exactly once under
// concurrent first callers. A failed creation is not cached.
func (r *Registry) engine(ctx context.Context, market domain.Market) (*gorm.DB, error) {
	r.mu.RLock()
	db, ok := r.engines[market]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	v, err, _ := r.group.Do(market.String(), func() (interface{}, error) {
		r.mu.RLock()
		db, ok := r.engines[market]
		r.mu.RUnlock()
		if ok {
			return db, nil
		}
		db, err := r.open(ctx, market)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.engines[market] = db
		r.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

func (r *Registry) open(ctx context.Context, market domain.Market) (*gorm.DB, error) {
	cfg, ok := r.stores[market]
	if !ok || cfg.DSN == "" {
		return nil, fmt.Errorf("no store configured for market %q: %w", market, domain.ErrStoreUnavailable)
	}
	dialector, err := r.dialector(market, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s store: %v: %w", market, err, domain.ErrStoreUnavailable)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 r.gormLog,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %v: %w", market, err, domain.ErrStoreUnavailable)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s store: %v: %w", market, err, domain.ErrStoreUnavailable)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// The first caller's cancellation must not poison the engine for everyone waiting on it.
	openCtx := context.WithoutCancel(ctx)
	if cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(openCtx, cfg.AcquireTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(openCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s store: %v: %w", market, err, domain.ErrStoreUnavailable)
	}
	if r.migrate != nil {
		if err := r.migrate(db.WithContext(openCtx)); err != nil {
			_ = sqlDB.Close()
			// Schema errors are not unavailability: the store answered.
			return nil, fmt.Errorf("migrate %s store: %w", market, err)
		}
	}

	r.metrics.EngineOpened(market)
	r.log.Info("market store engine created",
		zap.String("market", market.String()),
		zap.String("driver", cfg.Driver),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

func defaultDialector(_ domain.Market, cfg config.StoreConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}

// ConnectionStats holds one market's pool statistics.
type ConnectionStats struct {
	Market             domain.Market `json:"market"`
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}

// Stats reports pool statistics for every engine created so far.
func (r *Registry) Stats() []ConnectionStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnectionStats, 0, len(r.engines))
	for _, m := range domain.Markets() {
		db, ok := r.engines[m]
		if !ok {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		s := sqlDB.Stats()
		out = append(out, ConnectionStats{
			Market:             m,
			MaxOpenConnections: s.MaxOpenConnections,
			OpenConnections:    s.OpenConnections,
			InUse:              s.InUse,
			Idle:               s.Idle,
			WaitCount:          s.WaitCount,
			WaitDuration:       s.WaitDuration,
		})
	}
	return out
}

// Close closes every engine. The registry must not be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for m, db := range r.engines {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s store: %w", m, err)
		}
		delete(r.engines, m)
	}
	return firstErr
}
