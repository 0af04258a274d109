// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/kinshealth/internal/app/system/cache"
	"github.com/dalemusser/kinshealth/internal/app/system/dbconn"
	"github.com/dalemusser/kinshealth/internal/app/system/indexes"
	"github.com/dalemusser/kinshealth/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB dials MongoDB through the shared provider and opens the cache.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	provider := dbconn.New(dbconn.Config{
		URI:         appCfg.MongoURI,
		Database:    appCfg.MongoDatabase,
		MaxPoolSize: appCfg.MongoMaxPoolSize,
		MinPoolSize: appCfg.MongoMinPoolSize,
		Retries:     appCfg.MongoConnectRetries,
	}, logger)

	h, err := provider.Get(ctx)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	c, err := cache.New(appCfg.RedisURL, logger)
	if err != nil {
		_ = provider.Close(ctx)
		return DBDeps{}, fmt.Errorf("open cache: %w", err)
	}

	return DBDeps{
		Mongo:         provider,
		MongoClient:   h.Client,
		MongoDatabase: h.Database,
		Cache:         c,
		Runtime:       &Runtime{},
	}, nil
}

// EnsureSchema installs collection validators first, then indexes. Both
// steps are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("schema validators failed", zap.Error(err))
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("schema ready")
	return nil
}
