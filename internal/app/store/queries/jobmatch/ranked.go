package jobmatch

import (
	"context"

	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const locationField = "geocode_address"

// earthRadiusMeters converts a radius to the radians $centerSphere wants.
const earthRadiusMeters = 6378100.0

// Page is one page of results with its pagination block.
type Page[T any] struct {
	Items []T
	Meta  paging.Meta
}

// near describes an optional geo ranking. A nil Point disables it.
type near struct {
	Point     *models.GeoPoint
	MaxMeters float64 // 0 means unbounded
}

func (n near) active() bool { return n.Point.Valid() }

// geoNearStage ranks by distance in miles into "distance".
func (n near) geoNearStage(query bson.M) bson.D {
	spec := bson.D{
		{Key: "near", Value: n.Point},
		{Key: "key", Value: locationField},
		{Key: "distanceField", Value: "distance"},
		{Key: "distanceMultiplier", Value: geo.MilesMultiplier},
		{Key: "spherical", Value: true},
		{Key: "query", Value: query},
	}
	if n.MaxMeters > 0 {
		spec = append(spec, bson.E{Key: "maxDistance", Value: n.MaxMeters})
	}
	return bson.D{{Key: "$geoNear", Value: spec}}
}

// countFilter is query restricted to the same documents $geoNear would see.
func (n near) countFilter(query bson.M) bson.M {
	out := bson.M{}
	for k, v := range query {
		out[k] = v
	}
	if n.MaxMeters > 0 {
		out[locationField] = bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{n.Point.Coordinates, n.MaxMeters / earthRadiusMeters},
		}}
	} else {
		out[locationField+".coordinates"] = bson.M{"$exists": true}
	}
	return out
}

var (
	byDistance = bson.D{{Key: "distance", Value: 1}, {Key: "created", Value: -1}}
	byCreated  = bson.D{{Key: "created", Value: -1}}
)

// query runs one paginated listing over coll. With an active geo ranking
// results come from $geoNear sorted by sortKey (distance first by
// default); otherwise from a plain find sorted by created desc. The page
// and the total are fetched in parallel.
func query[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, n near, sortKey bson.D, p paging.Page, project bson.M) (Page[T], error) {
	var (
		items []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var cur *mongo.Cursor
		var err error
		if n.active() {
			if sortKey == nil {
				sortKey = byDistance
			}
			pipe := mongo.Pipeline{
				n.geoNearStage(filter),
				{{Key: "$sort", Value: sortKey}},
			}
			pipe = append(pipe, paging.SkipLimit(p)...)
			if project != nil {
				pipe = append(pipe, bson.D{{Key: "$project", Value: project}})
			}
			cur, err = coll.Aggregate(gctx, pipe)
		} else {
			opts := options.Find().SetSort(byCreated).SetSkip(p.Skip()).SetLimit(p.Limit64())
			if project != nil {
				opts.SetProjection(project)
			}
			cur, err = coll.Find(gctx, filter, opts)
		}
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		out := []T{}
		if err := cur.All(gctx, &out); err != nil {
			return err
		}
		items = out
		return nil
	})
	g.Go(func() error {
		f := filter
		if n.active() {
			f = n.countFilter(filter)
		}
		c, err := coll.CountDocuments(gctx, f)
		total = c
		return err
	})
	if err := g.Wait(); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, Meta: paging.NewMeta(p, total)}, nil
}
