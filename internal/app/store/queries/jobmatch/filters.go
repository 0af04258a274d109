// Package jobmatch holds the read-side matching queries over jobs and
// caregivers: geo ranking, attribute filters and paginated counts.
//
// Job searches match any-of ($in) on licenses and schedule. Caregiver
// attribute searches from the nearby-caregivers page match all-of ($all) on
// availability and licenses. The two are intentionally different.
package jobmatch

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caregiver mobility values.
const (
	MobilityHasCar = "has_car"
	MobilityNoCar  = "no_car"
)

// Hours is a minHours constraint. The zero value matches everything.
type Hours struct {
	Min *int
	Max *int
	// Requested switches to the flexible shape: jobs whose minimum is at
	// most Requested + geo.FlexibleHoursBuffer.
	Requested *int
}

// Exact matches jobs with minHours >= n.
func Exact(n int) Hours { return Hours{Min: &n} }

// Between matches jobs with min <= minHours <= max.
func Between(min, max int) Hours { return Hours{Min: &min, Max: &max} }

// Flexible matches jobs a caregiver wanting n hours could still take.
func Flexible(n int) Hours { return Hours{Requested: &n} }

func (h Hours) clause() bson.M {
	if h.Requested != nil {
		return bson.M{"$lte": *h.Requested + geo.FlexibleHoursBuffer}
	}
	c := bson.M{}
	if h.Min != nil {
		c["$gte"] = *h.Min
	}
	if h.Max != nil {
		c["$lte"] = *h.Max
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

// JobFilter narrows public job listings.
type JobFilter struct {
	Licenses []string
	Schedule []string
	Hours    Hours
}

// publicJobs excludes drafts. Documents without the flag count as public.
func publicJobs() bson.M { return bson.M{"draft": bson.M{"$ne": true}} }

// Build returns the $match document for f over public jobs.
func (f JobFilter) Build() bson.M {
	m := publicJobs()
	if v := nonEmpty(f.Licenses); len(v) > 0 {
		m["licenses"] = bson.M{"$in": v}
	}
	if v := nonEmpty(f.Schedule); len(v) > 0 {
		m["schedule"] = bson.M{"$in": v}
	}
	if c := f.Hours.clause(); c != nil {
		m["minHours"] = c
	}
	return m
}

// CaregiverAttrs is the all-of attribute filter used near a location.
type CaregiverAttrs struct {
	Availability []string
	Licenses     []string
}

// Build returns the $match document for caregivers holding every value.
func (a CaregiverAttrs) Build() bson.M {
	m := bson.M{"role": models.RoleCaregiver}
	if v := nonEmpty(a.Availability); len(v) > 0 {
		m["availability"] = bson.M{"$all": v}
	}
	if v := nonEmpty(a.Licenses); len(v) > 0 {
		m["licenses"] = bson.M{"$all": v}
	}
	return m
}

// CaregiverSearch is the provider-facing caregiver search.
type CaregiverSearch struct {
	Name             string
	AlertPreferences []string
	Licenses         []string
	Availability     []string
	City             string
	Zipcode          string
}

// Build returns the $match document. Name is matched literally and case
// insensitively against first, last and full name; list fields are any-of.
func (s CaregiverSearch) Build() bson.M {
	m := bson.M{"role": models.RoleCaregiver}
	if name := strings.TrimSpace(s.Name); name != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
		m["$or"] = bson.A{
			bson.M{"fname": re},
			bson.M{"lname": re},
			bson.M{"name": re},
		}
	}
	if v := nonEmpty(s.AlertPreferences); len(v) > 0 {
		m["alert_preferences"] = bson.M{"$in": v}
	}
	if v := nonEmpty(s.Licenses); len(v) > 0 {
		m["licenses"] = bson.M{"$in": v}
	}
	if v := nonEmpty(s.Availability); len(v) > 0 {
		m["availability"] = bson.M{"$in": v}
	}
	if c := strings.TrimSpace(s.City); c != "" {
		m["city"] = c
	}
	if z := strings.TrimSpace(s.Zipcode); z != "" {
		m["zipcode"] = z
	}
	return m
}

// MobilityFor maps a job's mobility requirement to the caregiver values that
// satisfy it. nil means no constraint.
func MobilityFor(jobMobility string) []string {
	switch jobMobility {
	case models.MobilityCarNeeded:
		return []string{MobilityHasCar}
	case models.MobilityNoCarNeeded:
		return []string{MobilityHasCar, MobilityNoCar}
	default:
		return nil
	}
}

// forJob builds the caregiver match for a job: any-of licenses, the job's
// schedule among the caregiver's availability, and mobility.
func forJob(j models.Job) bson.M {
	m := bson.M{"role": models.RoleCaregiver}
	if v := nonEmpty(j.Licenses); len(v) > 0 {
		m["licenses"] = bson.M{"$in": v}
	}
	if s := strings.TrimSpace(j.Schedule); s != "" {
		m["availability"] = s
	}
	if mv := MobilityFor(j.Mobility); mv != nil {
		m["mobility"] = bson.M{"$in": mv}
	}
	return m
}

// similarTo matches other caregivers sharing a city, zipcode or license
// with u. ok is false when u has none of those.
func similarTo(u models.User) (bson.M, bool) {
	var or bson.A
	if u.City != "" {
		or = append(or, bson.M{"city": u.City})
	}
	if u.Zipcode != "" {
		or = append(or, bson.M{"zipcode": u.Zipcode})
	}
	if v := nonEmpty(u.Licenses); len(v) > 0 {
		or = append(or, bson.M{"licenses": bson.M{"$in": v}})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{
		"role":   models.RoleCaregiver,
		"userID": bson.M{"$ne": u.UserID},
		"$or":    or,
	}, true
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ShuffleCap shuffles items in place with rng and truncates to max.
func ShuffleCap[T any](rng *rand.Rand, items []T, max int) []T {
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return items
}
