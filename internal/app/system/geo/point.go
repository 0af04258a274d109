package geo

import (
	"context"
	"errors"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.uber.org/zap"
)

// Point geocodes zipcode and city into a GeoJSON point for storage. A
// missing address, no match or a failed call all yield nil: profile and job
// writes go ahead without coordinates and the failure is only logged.
func Point(ctx context.Context, g Geocoder, zipcode, city string, log *zap.Logger) *models.GeoPoint {
	if g == nil {
		return nil
	}
	c, err := g.Geocode(ctx, zipcode, city)
	switch {
	case errors.Is(err, ErrNoAddress):
		return nil
	case err != nil:
		log.Warn("geocoding failed", zap.String("zipcode", zipcode), zap.String("city", city), zap.Error(err))
		return nil
	case c == nil:
		return nil
	}
	p := models.NewPoint(c.Lat, c.Lng)
	if !p.Valid() {
		return nil
	}
	return p
}

// PointFromCoordinates converts c for use as a query subject.
func PointFromCoordinates(c Coordinates) *models.GeoPoint {
	p := models.NewPoint(c.Lat, c.Lng)
	if !p.Valid() {
		return nil
	}
	return p
}
