package models

// GeoPoint is a GeoJSON point. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint builds a GeoJSON point from latitude and longitude.
func NewPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Valid reports whether p carries a usable [lng, lat] pair.
func (p *GeoPoint) Valid() bool {
	if p == nil || len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	if lng == 0 && lat == 0 {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}
