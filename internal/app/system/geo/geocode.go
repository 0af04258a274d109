package geo

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, zipcode, city string) (*Coordinates, error)
}

// ErrNoAddress is returned when neither a city nor a usable zip was given.
var ErrNoAddress = errors.New("geo: no address to geocode")

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
	log    *zap.Logger
}

// NewGoogleGeocoder builds a geocoder. A blank key yields a Nop geocoder so
// local development works without credentials.
func NewGoogleGeocoder(apiKey string, logger *zap.Logger) (Geocoder, error) {
	if apiKey == "" {
		logger.Warn("google maps api key not set; geocoding disabled")
		return Nop{}, nil
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleGeocoder{client: c, log: logger}, nil
}

// Geocode returns the first result's location, or nil with no error when
// Google has no match.
func (g *GoogleGeocoder) Geocode(ctx context.Context, zipcode, city string) (*Coordinates, error) {
	addr := AddressQuery(zipcode, city)
	if addr == "" {
		return nil, ErrNoAddress
	}
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: addr})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		g.log.Info("geocode returned no results", zap.String("address", addr))
		return nil, nil
	}
	loc := res[0].Geometry.Location
	return &Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Nop never resolves anything.
type Nop struct{}

func (Nop) Geocode(context.Context, string, string) (*Coordinates, error) { return nil, nil }
