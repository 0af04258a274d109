package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()
	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short = %v", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed to %v", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	defer Reset()
	t.Setenv("KINSHEALTH_TIMEOUT_PING", "750ms")
	t.Setenv("KINSHEALTH_TIMEOUT_LONG", "bogus")
	t.Setenv("KINSHEALTH_TIMEOUT_BATCH", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("applied %d, want 1", n)
	}
	if Ping() != 750*time.Millisecond {
		t.Errorf("Ping = %v", Ping())
	}
	if Long() != DefaultLong || Batch() != DefaultBatch {
		t.Error("invalid values should be skipped")
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v", ctx.Err())
	}
}
