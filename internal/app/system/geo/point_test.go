package geo

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubGeocoder struct {
	c   *Coordinates
	err error
}

func (s stubGeocoder) Geocode(context.Context, string, string) (*Coordinates, error) { return s.c, s.err }

func TestPoint(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	p := Point(ctx, stubGeocoder{c: &Coordinates{Lat: 47.6, Lng: -122.3}}, "98101", "Seattle", log)
	if p == nil || p.Coordinates[0] != -122.3 || p.Coordinates[1] != 47.6 {
		t.Fatalf("expected [lng,lat] point, got %+v", p)
	}
	if Point(ctx, stubGeocoder{err: errors.New("quota")}, "98101", "Seattle", log) != nil {
		t.Error("failed call should yield nil")
	}
	if Point(ctx, stubGeocoder{err: ErrNoAddress}, "", "", log) != nil {
		t.Error("no address should yield nil")
	}
	if Point(ctx, Nop{}, "98101", "Seattle", log) != nil {
		t.Error("Nop should yield nil")
	}
	if Point(ctx, nil, "98101", "Seattle", log) != nil {
		t.Error("nil geocoder should yield nil")
	}
}

func TestPointFromCoordinates(t *testing.T) {
	if PointFromCoordinates(Coordinates{}) != nil {
		t.Error("0,0 is treated as unknown")
	}
	if PointFromCoordinates(Coordinates{Lat: 1, Lng: 2}) == nil {
		t.Error("expected a point")
	}
}
