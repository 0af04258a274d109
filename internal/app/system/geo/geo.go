// Package geo holds the distance constants shared by the matching queries
// and the adapters that turn addresses and client IPs into coordinates.
package geo

import (
	"math"
	"regexp"
)

const (
	// MilesMultiplier converts $geoNear meters into miles.
	MilesMultiplier = 1.0 / 1609

	// AlertRadiusMeters is the 45 mile radius used for caregiver job alerts.
	AlertRadiusMeters = 70000

	// SearchRadiusMeters is the 50 km radius used by on-demand searches.
	SearchRadiusMeters = 50000

	// FlexibleHoursBuffer lets a job through when its minimum is at most
	// this many hours above what the caregiver asked for.
	FlexibleHoursBuffer = 10

	// AlertFanoutCap bounds the recipients of one job alert.
	AlertFanoutCap = 1000
)

var zipRe = regexp.MustCompile(`(^\d{5}$)|(^\d{5}-\d{4}$)`)

// ValidZipcode reports whether z is a 5 digit or ZIP+4 US code.
func ValidZipcode(z string) bool { return zipRe.MatchString(z) }

// AddressQuery picks the string sent to the geocoder: "city zip" when the
// zip is valid and a city is present, otherwise the city alone.
func AddressQuery(zipcode, city string) string {
	if ValidZipcode(zipcode) && city != "" {
		return city + " " + zipcode
	}
	return city
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoundMiles rounds a geo-ranked distance up to whole miles for display.
func RoundMiles(d float64) int { return int(math.Ceil(d)) }
