// Package timeouts centralizes the deadlines put on database and provider
// calls made while serving a request.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: paginated lists and geo queries
//   - Long: multi-collection mutations such as apply or cascade delete
//   - Batch: alert fan-out over many recipients
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultBatch}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero fields of cfg. Call it at startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	setIfPositive(&cur.Ping, cfg.Ping)
	setIfPositive(&cur.Short, cfg.Short)
	setIfPositive(&cur.Medium, cfg.Medium)
	setIfPositive(&cur.Long, cfg.Long)
	setIfPositive(&cur.Batch, cfg.Batch)
}

func setIfPositive(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	cur = defaults()
	mu.Unlock()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// ConfigureFromEnv reads KINSHEALTH_TIMEOUT_{PING,SHORT,MEDIUM,LONG,BATCH}
// as Go durations ("500ms", "2m"). Invalid or non-positive values are
// skipped. It returns how many were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"KINSHEALTH_TIMEOUT_PING":   &cfg.Ping,
		"KINSHEALTH_TIMEOUT_SHORT":  &cfg.Short,
		"KINSHEALTH_TIMEOUT_MEDIUM": &cfg.Medium,
		"KINSHEALTH_TIMEOUT_LONG":   &cfg.Long,
		"KINSHEALTH_TIMEOUT_BATCH":  &cfg.Batch,
	} {
		if d, err := time.ParseDuration(os.Getenv(name)); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout is context.WithTimeout whose cancel logs when the deadline
// was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "apply to job")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
