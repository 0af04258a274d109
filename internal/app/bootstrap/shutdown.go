// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the dispatcher, then closes the cache and the Mongo client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Runtime != nil && deps.Runtime.Alerts != nil {
		deps.Runtime.Alerts.Stop()
	}
	if deps.Cache != nil {
		if err := deps.Cache.Close(); err != nil {
			logger.Warn("cache close failed", zap.Error(err))
		}
	}
	if deps.Mongo != nil {
		if err := deps.Mongo.Close(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
