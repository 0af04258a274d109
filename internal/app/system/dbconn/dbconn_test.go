package dbconn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGet_ConcurrentCallersShareOneDial(t *testing.T) {
	p := New(Config{URI: "mongodb://unused", Database: "kinshealth_test"}, zap.NewNop())

	var dials int32
	release := make(chan struct{})
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		atomic.AddInt32(&dials, 1)
		<-release
		return &Handle{}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	handles := make([]*Handle, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := p.Get(context.Background())
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			handles[i] = h
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&dials); n != 1 {
		t.Errorf("dial called %d times, want 1", n)
	}
	for i := 1; i < callers; i++ {
		if handles[i] != handles[0] {
			t.Fatal("callers received different handles")
		}
	}
}

func TestGet_CachesHandle(t *testing.T) {
	p := New(Config{URI: "mongodb://unused"}, zap.NewNop())
	var dials int32
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		atomic.AddInt32(&dials, 1)
		return &Handle{}, nil
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Get(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if dials != 1 {
		t.Errorf("dials = %d, want 1", dials)
	}
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	p := New(Config{URI: "mongodb://unused", Retries: 3}, zap.NewNop())
	var dials int32
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		if atomic.AddInt32(&dials, 1) < 3 {
			return nil, errors.New("connection refused")
		}
		return &Handle{}, nil
	}
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dials != 3 {
		t.Errorf("dials = %d, want 3", dials)
	}
}

func TestGet_FailureIsNotCached(t *testing.T) {
	p := New(Config{URI: "mongodb://unused"}, zap.NewNop())
	fail := true
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		if fail {
			return nil, errors.New("down")
		}
		return &Handle{}, nil
	}
	if _, err := p.Get(context.Background()); err == nil {
		t.Fatal("expected error while server is down")
	}
	fail = false
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
}

func TestGet_NoURIIsPermanent(t *testing.T) {
	p := New(Config{Retries: 5}, zap.NewNop())
	var dials int32
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		atomic.AddInt32(&dials, 1)
		return dial(ctx, cfg)
	}
	_, err := p.Get(context.Background())
	if !errors.Is(err, ErrNoURI) {
		t.Fatalf("err = %v, want ErrNoURI", err)
	}
	if dials != 1 {
		t.Errorf("dials = %d, want 1 (no retry)", dials)
	}
}

func TestClose_AllowsRedial(t *testing.T) {
	p := New(Config{URI: "mongodb://unused"}, zap.NewNop())
	var dials int32
	p.dial = func(ctx context.Context, cfg Config) (*Handle, error) {
		atomic.AddInt32(&dials, 1)
		return &Handle{}, nil
	}
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if dials != 2 {
		t.Errorf("dials = %d, want 2", dials)
	}
}
