// Package txn runs groups of writes in a MongoDB transaction when the
// deployment supports one, and sequentially when it does not (standalone
// servers used in development).
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes transactional units of work against one client.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New returns a Runner bound to client.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn inside a transaction. If the server rejects transactions,
// the runner remembers that and executes fn directly from then on.
//
// fn may be invoked more than once (the driver retries transient
// transaction errors), so it must not have side effects outside the
// database.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.client == nil || r.unsupported.Load() {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.markUnsupported(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		// The aborted transaction wrote nothing, so a plain rerun is safe.
		r.markUnsupported(err)
		return fn(ctx)
	}
	return err
}

// Supported reports whether the runner still attempts transactions.
func (r *Runner) Supported() bool { return !r.unsupported.Load() }

func (r *Runner) markUnsupported(err error) {
	if r.unsupported.CompareAndSwap(false, true) && r.log != nil {
		r.log.Warn("mongo transactions unavailable; running multi-step writes sequentially", zap.Error(err))
	}
}

// Command error codes a standalone server returns for transactional work.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // NoReplicationEnabled on some versions
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedWords = []string{"transaction", "replica set", "session", "not supported", "illegal operation"}

// IsNotSupported reports whether err means the deployment cannot run
// transactions. It checks command codes first and then falls back to
// message matching, which needs at least two of the known words.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}
