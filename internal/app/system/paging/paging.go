// internal/app/system/paging/paging.go
package paging

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Default page sizes used by the listing endpoints.
const (
	JobsLimit       = 5     // caregiver job feed
	SearchLimit     = 10    // filters, matches, forum threads
	PostsLimit      = 10000 // posts in a thread
	RepliesLimit    = 300   // replies under a post
	SimilarLimit    = 4     // "similar caregivers", "matching caregivers"
	MaxRequestLimit = 10000
)

// Page is a clamped 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Clamp coerces page and limit to at least 1 and limit to at most
// MaxRequestLimit.
func Clamp(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRequestLimit {
		limit = MaxRequestLimit
	}
	return Page{Page: page, Limit: limit}
}

// Parse reads "page" and "limit" from the query string. Missing or
// non-numeric values fall back to page 1 and defaultLimit; numeric values
// below 1 are clamped to 1.
func Parse(r *http.Request, defaultLimit int) Page {
	return Clamp(atoiOr(query.Get(r, "page"), 1), atoiOr(query.Get(r, "limit"), defaultLimit))
}

// FromBody is Parse for JSON bodies where absent fields decode to nil.
func FromBody(page, limit *int, defaultLimit int) Page {
	p, l := 1, defaultLimit
	if page != nil {
		p = *page
	}
	if limit != nil {
		l = *limit
	}
	return Clamp(p, l)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Skip is (page-1)*limit.
func (p Page) Skip() int64 { return int64(p.Page-1) * int64(p.Limit) }

// Limit64 is Limit as int64 for the driver options.
func (p Page) Limit64() int64 { return int64(p.Limit) }

// Meta is the pagination block returned with listings.
type Meta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
}

// NewMeta computes TotalPages as ceil(total/limit).
func NewMeta(p Page, total int64) Meta {
	return Meta{
		Total:       total,
		CurrentPage: p.Page,
		Limit:       p.Limit,
		TotalPages:  TotalPages(total, p.Limit),
	}
}

// TotalPages returns ceil(total/limit), 0 when there is nothing to show.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// SkipLimit returns the $skip/$limit stages for p.
func SkipLimit(p Page) []bson.D {
	return []bson.D{
		{{Key: "$skip", Value: p.Skip()}},
		{{Key: "$limit", Value: p.Limit64()}},
	}
}

// FacetStage returns a $facet stage that yields the total count and the
// requested page from one aggregation round-trip.
func FacetStage(p Page) bson.D {
	data := bson.A{}
	for _, st := range SkipLimit(p) {
		data = append(data, st)
	}
	return bson.D{{Key: "$facet", Value: bson.D{
		{Key: "metadata", Value: bson.A{bson.D{{Key: "$count", Value: "total"}}}},
		{Key: "data", Value: data},
	}}}
}

type facetDoc[T any] struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Data []T `bson:"data"`
}

// DecodeFacet reads the single document produced by a pipeline that ends in
// FacetStage. An empty match set yields (empty slice, 0).
func DecodeFacet[T any](ctx context.Context, cur *mongo.Cursor) ([]T, int64, error) {
	defer cur.Close(ctx)
	var docs []facetDoc[T]
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	if len(docs) == 0 {
		return []T{}, 0, nil
	}
	var total int64
	if len(docs[0].Metadata) > 0 {
		total = docs[0].Metadata[0].Total
	}
	data := docs[0].Data
	if data == nil {
		data = []T{}
	}
	return data, total, nil
}

// Range holds display range values for a page.
type Range struct {
	Start int // 1-based index of the first row (0 if none)
	End   int // 1-based index of the last row (0 if none)
}

// ComputeRange returns the 1-based rows covered by p given how many rows
// were actually returned.
func ComputeRange(p Page, shown int) Range {
	if shown == 0 {
		return Range{}
	}
	start := int(p.Skip()) + 1
	return Range{Start: start, End: start + shown - 1}
}
