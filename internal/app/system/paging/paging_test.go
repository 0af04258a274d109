package paging

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Page
	}{
		{"valid", 3, 10, Page{3, 10}},
		{"zero page", 0, 10, Page{1, 10}},
		{"negative page", -4, 10, Page{1, 10}},
		{"zero limit", 2, 0, Page{2, 1}},
		{"negative limit", 2, -1, Page{2, 1}},
		{"huge limit", 1, MaxRequestLimit + 1, Page{1, MaxRequestLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.page, tt.limit); got != tt.want {
				t.Errorf("Clamp(%d, %d) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		url  string
		want Page
	}{
		{"/x", Page{1, JobsLimit}},
		{"/x?page=2&limit=20", Page{2, 20}},
		{"/x?page=abc&limit=xyz", Page{1, JobsLimit}},
		{"/x?page=0&limit=0", Page{1, 1}},
		{"/x?page=-3", Page{1, JobsLimit}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		if got := Parse(r, JobsLimit); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.url, got, tt.want)
		}
	}
}

func TestFromBody(t *testing.T) {
	zero, two, fifty := 0, 2, 50
	if got := FromBody(nil, nil, SearchLimit); got != (Page{1, SearchLimit}) {
		t.Errorf("FromBody(nil, nil) = %+v", got)
	}
	if got := FromBody(&two, &fifty, SearchLimit); got != (Page{2, 50}) {
		t.Errorf("FromBody(2, 50) = %+v", got)
	}
	if got := FromBody(&zero, &zero, SearchLimit); got != (Page{1, 1}) {
		t.Errorf("FromBody(0, 0) = %+v", got)
	}
}

func TestSkip(t *testing.T) {
	for page := 1; page <= 5; page++ {
		p := Clamp(page, 7)
		if want := int64((page - 1) * 7); p.Skip() != want {
			t.Errorf("page %d: Skip() = %d, want %d", page, p.Skip(), want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Page{Page: 2, Limit: 5}, 12)
	if m.Total != 12 || m.CurrentPage != 2 || m.Limit != 5 || m.TotalPages != 3 {
		t.Errorf("NewMeta = %+v", m)
	}
}

func TestFacetStage(t *testing.T) {
	st := FacetStage(Page{Page: 3, Limit: 4})
	if st[0].Key != "$facet" {
		t.Fatalf("stage key = %q", st[0].Key)
	}
	facet := st[0].Value.(bson.D)
	data := facet[1].Value.(bson.A)
	skip := data[0].(bson.D)[0]
	limit := data[1].(bson.D)[0]
	if skip.Key != "$skip" || skip.Value != int64(8) {
		t.Errorf("skip stage = %v", skip)
	}
	if limit.Key != "$limit" || limit.Value != int64(4) {
		t.Errorf("limit stage = %v", limit)
	}
}

func TestComputeRange(t *testing.T) {
	if r := ComputeRange(Page{Page: 2, Limit: 10}, 4); r.Start != 11 || r.End != 14 {
		t.Errorf("ComputeRange = %+v", r)
	}
	if r := ComputeRange(Page{Page: 1, Limit: 10}, 0); r != (Range{}) {
		t.Errorf("ComputeRange empty = %+v", r)
	}
}
