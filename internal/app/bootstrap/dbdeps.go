// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/kinshealth/internal/app/system/cache"
	"github.com/dalemusser/kinshealth/internal/app/system/dbconn"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends shared by every request. WAFFLE passes it by
// value, so anything created after ConnectDB hangs off Runtime.
type DBDeps struct {
	Mongo         *dbconn.Provider
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Cache         cache.Cache
	Runtime       *Runtime
}

// Runtime is filled in by Startup and torn down by Shutdown.
type Runtime struct {
	Metrics *metrics.Metrics
	Alerts  *workers.AlertDispatcher
}
