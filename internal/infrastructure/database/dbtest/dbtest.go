// Package dbtest builds throwaway sqlite-backed registries for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
)

// Store returns a sqlite store config backed by a file in t's temp dir.
func Store(t testing.TB, name string) config.StoreConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".db")
	return config.StoreConfig{
		Driver:         "sqlite",
		DSN:            fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", path),
		MaxOpenConns:   5,
		MaxIdleConns:   2,
		AcquireTimeout: 5 * time.Second,
	}
}

// NewRegistry returns a migrated registry with one sqlite store per market.
// It is closed when the test finishes.
func NewRegistry(t testing.TB, opts ...database.Option) *database.Registry {
	t.Helper()
	stores := make(map[domain.Market]config.StoreConfig)
	for _, m := range domain.Markets() {
		stores[m] = Store(t, m.String())
	}
	opts = append([]database.Option{database.WithMigrations(database.Migrate)}, opts...)
	reg := database.NewRegistry(stores, opts...)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}
