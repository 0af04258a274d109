// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/kinshealth/internal/app/system/messaging"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup creates the metrics registry and starts the alert dispatcher.
// It runs after EnsureSchema and before BuildHandler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	rt := deps.Runtime
	rt.Metrics = metrics.New()

	email := messaging.NewCustomerIO(appCfg.CustomerIOAppKey, logger)
	rt.Alerts = workers.NewAlertDispatcher(
		workers.NewMongoAlertSource(deps.MongoDatabase),
		email,
		rt.Metrics,
		workers.AlertConfig{
			JobAlertTemplate:       appCfg.JobAlertTemplate,
			CaregiverAlertTemplate: appCfg.CandidateAlertTemplate,
			FanoutCap:              appCfg.AlertFanoutCap,
			QueueSize:              appCfg.AlertQueueSize,
		},
		logger,
	)
	rt.Alerts.Start()
	logger.Info("alert dispatcher started", zap.Int("fanout_cap", appCfg.AlertFanoutCap))
	return nil
}
