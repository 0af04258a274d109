package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/cache"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestValidZipcode(t *testing.T) {
	for z, want := range map[string]bool{
		"98101":      true,
		"98101-1234": true,
		"9810":       false,
		"981011":     false,
		"98101-12":   false,
		"":           false,
		"abcde":      false,
	} {
		assert.Equal(t, want, ValidZipcode(z), z)
	}
}

func TestAddressQuery(t *testing.T) {
	assert.Equal(t, "Seattle 98101", AddressQuery("98101", "Seattle"))
	assert.Equal(t, "Seattle", AddressQuery("bad", "Seattle"))
	assert.Equal(t, "", AddressQuery("98101", ""))
}

func TestRoundMiles(t *testing.T) {
	assert.Equal(t, 1, RoundMiles(0.2))
	assert.Equal(t, 12, RoundMiles(11.01))
	assert.Equal(t, 3, RoundMiles(3))
}

func TestIPLocator_Success(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"latitude":47.6,"longitude":-122.3}`))
	}))
	defer srv.Close()

	l := &IPLocator{
		URLTemplate: srv.URL + "/%s",
		Fallback:    Coordinates{Lat: 1, Lng: 1},
		Cache:       cache.NewMemory(),
		TTL:         time.Minute,
		Log:         zap.NewNop(),
	}
	got := l.Locate(context.Background(), "1.2.3.4")
	assert.Equal(t, Coordinates{Lat: 47.6, Lng: -122.3}, got)

	// Second call is served from the cache.
	l.Locate(context.Background(), "1.2.3.4")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestIPLocator_FallbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fb := Coordinates{Lat: 47.6062, Lng: -122.3321}
	l := &IPLocator{URLTemplate: srv.URL + "/%s", Fallback: fb, Log: zap.NewNop()}
	assert.Equal(t, fb, l.Locate(context.Background(), "1.2.3.4"))
}

func TestIPLocator_FallbackOnEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	fb := Coordinates{Lat: 10, Lng: 20}
	l := &IPLocator{URLTemplate: srv.URL + "/%s", Fallback: fb, Log: zap.NewNop()}
	assert.Equal(t, fb, l.Locate(context.Background(), "1.2.3.4"))
}

func TestIPLocator_Unconfigured(t *testing.T) {
	fb := Coordinates{Lat: 10, Lng: 20}
	l := &IPLocator{Fallback: fb, Log: zap.NewNop()}
	assert.Equal(t, fb, l.Locate(context.Background(), "1.2.3.4"))
}

func TestNewGoogleGeocoder_BlankKeyIsNop(t *testing.T) {
	g, err := NewGoogleGeocoder("", zap.NewNop())
	assert.NoError(t, err)
	c, err := g.Geocode(context.Background(), "98101", "Seattle")
	assert.NoError(t, err)
	assert.Nil(t, c)
}
