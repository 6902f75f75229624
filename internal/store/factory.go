package store

import (
	"context"
	"fmt"

	"github.com/zhouzirui/travel-tavern/backend/internal/config"
)

// Open builds the backend selected by cfg.Driver. ctx bounds background
// work such as the memory store's expiry sweeper.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryStoreWithTTL(ctx, cfg.SessionTTL), nil
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLiteDSN)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
