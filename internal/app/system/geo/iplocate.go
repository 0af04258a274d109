package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/cache"
	"go.uber.org/zap"
)

// IPLocator turns a client IP into coordinates. It never fails: any error
// from the lookup service yields the configured fallback.
type IPLocator struct {
	// URLTemplate has one %s for the IP, for example
	// "http://api.ipstack.com/%s?access_key=KEY".
	URLTemplate string
	Fallback    Coordinates
	Cache       cache.Cache
	TTL         time.Duration
	HTTP        *http.Client
	Log         *zap.Logger
}

type ipResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locate returns the coordinates for ip, or the fallback.
func (l *IPLocator) Locate(ctx context.Context, ip string) Coordinates {
	if l.URLTemplate == "" || ip == "" {
		return l.Fallback
	}
	key := "geoip:" + ip
	if l.Cache != nil {
		if b, ok, err := l.Cache.Get(ctx, key); err == nil && ok {
			var c Coordinates
			if json.Unmarshal(b, &c) == nil {
				return c
			}
		}
	}

	c, err := l.lookup(ctx, ip)
	if err != nil {
		l.Log.Warn("ip geolocation failed; using fallback", zap.String("ip", ip), zap.Error(err))
		return l.Fallback
	}
	if l.Cache != nil {
		if b, err := json.Marshal(c); err == nil {
			if err := l.Cache.Set(ctx, key, b, l.TTL); err != nil {
				l.Log.Debug("geoip cache set failed", zap.Error(err))
			}
		}
	}
	return c
}

func (l *IPLocator) lookup(ctx context.Context, ip string) (Coordinates, error) {
	url := l.URLTemplate
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, ip)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Coordinates{}, err
	}
	hc := l.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geoip: status %d", resp.StatusCode)
	}
	var body ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, err
	}
	if body.Latitude == 0 || body.Longitude == 0 {
		return Coordinates{}, fmt.Errorf("geoip: no coordinates for %s", ip)
	}
	return Coordinates{Lat: body.Latitude, Lng: body.Longitude}, nil
}
