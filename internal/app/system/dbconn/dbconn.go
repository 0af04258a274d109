// Package dbconn owns the process-wide MongoDB handle.
//
// The first caller of Get dials the server; concurrent callers during that
// window share the same dial through singleflight. A Provider that has been
// closed (or whose dial failed) dials again on the next Get, so a handler
// never opens a connection of its own.
package dbconn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config describes how to reach the database.
type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
	// Retries is how many extra dial attempts are made with exponential
	// backoff before Get gives up.
	Retries uint64
}

// Handle is a connected client plus the app database.
type Handle struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Provider lazily creates and caches one Handle.
type Provider struct {
	cfg Config
	log *zap.Logger

	mu     sync.RWMutex
	handle *Handle
	group  singleflight.Group

	// dial is swapped in tests.
	dial func(ctx context.Context, cfg Config) (*Handle, error)
}

// ErrNoURI is returned when Config.URI is blank.
var ErrNoURI = errors.New("dbconn: mongo uri is required")

// New returns a Provider. Nothing is dialed until Get.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Provider{cfg: cfg, log: logger, dial: dial}
}

// Get returns the cached handle, dialing once if there is none.
func (p *Provider) Get(ctx context.Context) (*Handle, error) {
	p.mu.RLock()
	h := p.handle
	p.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	v, err, shared := p.group.Do("connect", func() (interface{}, error) {
		p.mu.RLock()
		existing := p.handle
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		h, err := p.dialWithRetry(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.handle = h
		p.mu.Unlock()
		p.log.Info("mongo connected",
			zap.String("database", p.cfg.Database),
			zap.Uint64("max_pool", p.cfg.MaxPoolSize))
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.log.Debug("mongo connect shared with concurrent caller")
	}
	return v.(*Handle), nil
}

// Close disconnects the cached client. A later Get dials again.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.mu.Unlock()
	if h == nil || h.Client == nil {
		return nil
	}
	p.log.Info("disconnecting mongo client")
	return h.Client.Disconnect(ctx)
}

func (p *Provider) dialWithRetry(ctx context.Context) (*Handle, error) {
	var h *Handle
	op := func() error {
		var err error
		h, err = p.dial(ctx, p.cfg)
		if errors.Is(err, ErrNoURI) {
			return backoff.Permanent(err)
		}
		if err != nil {
			p.log.Warn("mongo connect attempt failed", zap.Error(err))
		}
		return err
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 250 * time.Millisecond
	eb.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, p.cfg.Retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return h, nil
}

func dial(ctx context.Context, cfg Config) (*Handle, error) {
	if cfg.URI == "" {
		return nil, ErrNoURI
	}
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Handle{Client: client, Database: client.Database(cfg.Database)}, nil
}
