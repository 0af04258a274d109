package jobmatch

import (
	"math/rand"
	"testing"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHours_Shapes(t *testing.T) {
	assert.Nil(t, Hours{}.clause())
	assert.Equal(t, bson.M{"$gte": 20}, Exact(20).clause())
	assert.Equal(t, bson.M{"$gte": 10, "$lte": 30}, Between(10, 30).clause())
	assert.Equal(t, bson.M{"$lte": 25}, Flexible(15).clause())
}

func TestJobFilter_AnyOf(t *testing.T) {
	m := JobFilter{
		Licenses: []string{"CNA", " "},
		Schedule: []string{"night"},
		Hours:    Flexible(5),
	}.Build()

	assert.Equal(t, bson.M{"$ne": true}, m["draft"])
	assert.Equal(t, bson.M{"$in": []string{"CNA"}}, m["licenses"])
	assert.Equal(t, bson.M{"$in": []string{"night"}}, m["schedule"])
	assert.Equal(t, bson.M{"$lte": 15}, m["minHours"])
}

func TestJobFilter_EmptyIsPublicOnly(t *testing.T) {
	assert.Equal(t, publicJobs(), JobFilter{}.Build())
}

func TestCaregiverAttrs_AllOf(t *testing.T) {
	m := CaregiverAttrs{Availability: []string{"morning", "night"}, Licenses: []string{"HHA"}}.Build()
	assert.Equal(t, models.RoleCaregiver, m["role"])
	assert.Equal(t, bson.M{"$all": []string{"morning", "night"}}, m["availability"])
	assert.Equal(t, bson.M{"$all": []string{"HHA"}}, m["licenses"])
}

func TestCaregiverSearch_QuotesName(t *testing.T) {
	m := CaregiverSearch{Name: "a.b*", City: "Seattle"}.Build()
	or, ok := m["$or"].(bson.A)
	if assert.True(t, ok) {
		assert.Len(t, or, 3)
		re := or[0].(bson.M)["fname"].(primitive.Regex)
		assert.Equal(t, `a\.b\*`, re.Pattern)
		assert.Equal(t, "i", re.Options)
	}
	assert.Equal(t, "Seattle", m["city"])
	assert.NotContains(t, m, "zipcode")
}

func TestMobilityFor(t *testing.T) {
	assert.Equal(t, []string{MobilityHasCar}, MobilityFor(models.MobilityCarNeeded))
	assert.Equal(t, []string{MobilityHasCar, MobilityNoCar}, MobilityFor(models.MobilityNoCarNeeded))
	assert.Nil(t, MobilityFor(""))
}

func TestForJob(t *testing.T) {
	m := forJob(models.Job{Licenses: []string{"CNA"}, Schedule: "weekend", Mobility: models.MobilityCarNeeded})
	assert.Equal(t, bson.M{"$in": []string{"CNA"}}, m["licenses"])
	assert.Equal(t, "weekend", m["availability"])
	assert.Equal(t, bson.M{"$in": []string{MobilityHasCar}}, m["mobility"])
}

func TestSimilarTo(t *testing.T) {
	_, ok := similarTo(models.User{UserID: "x"})
	assert.False(t, ok)

	m, ok := similarTo(models.User{UserID: "x", City: "Tacoma", Licenses: []string{"CNA"}})
	assert.True(t, ok)
	assert.Equal(t, bson.M{"$ne": "x"}, m["userID"])
	assert.Len(t, m["$or"], 2)
}

func TestShuffleCap(t *testing.T) {
	in := make([]int, 1500)
	for i := range in {
		in[i] = i
	}
	out := ShuffleCap(rand.New(rand.NewSource(1)), in, 1000)
	assert.Len(t, out, 1000)

	small := ShuffleCap(rand.New(rand.NewSource(1)), []int{1, 2, 3}, 1000)
	assert.ElementsMatch(t, []int{1, 2, 3}, small)
}

func TestNear_CountFilter(t *testing.T) {
	n := near{Point: models.NewPoint(47.6, -122.3), MaxMeters: 50000}
	f := n.countFilter(bson.M{"role": "caregiver"})
	assert.Contains(t, f, "geocode_address")
	assert.Equal(t, "caregiver", f["role"])

	unbounded := near{Point: models.NewPoint(47.6, -122.3)}.countFilter(bson.M{})
	assert.Contains(t, unbounded, "geocode_address.coordinates")
}
