package geo

import (
	"math"
	"testing"

	"github.com/example/access-rides/internal/models"
)

type fakeSource struct{ drivers []models.Driver }

func (f *fakeSource) ListAvailable() []models.Driver {
	out := make([]models.Driver, 0, len(f.drivers))
	for _, d := range f.drivers {
		if d.Available {
			out = append(out, d)
		}
	}
	return out
}

func TestHaversineZero(t *testing.T) {
	if d := Haversine(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Haversine(40.7128, -74.0060, 40.7589, -73.9851)
	b := Haversine(40.7589, -73.9851, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("expected symmetric distances, got %f and %f", a, b)
	}
}

func TestNearbyRadiusCutoff(t *testing.T) {
	// midtown driver is ~5.3km from the NYC origin
	src := &fakeSource{drivers: []models.Driver{
		{ID: "d1", Loc: models.Coord{Lat: 40.7589, Lng: -73.9851}, Available: true},
	}}
	s := NewSearch(src)
	origin := models.Coord{Lat: 40.7128, Lng: -74.0060}

	if got := s.Nearby(origin, 6000); len(got) != 1 {
		t.Fatalf("expected driver within 6000m, got %d results", len(got))
	} else if got[0].DistanceMeters < 5000 || got[0].DistanceMeters > 5600 {
		t.Fatalf("unexpected distance %f", got[0].DistanceMeters)
	}
	if got := s.Nearby(origin, 1000); len(got) != 0 {
		t.Fatalf("expected no drivers within 1000m, got %d", len(got))
	}
}

func TestNearbySortedAndFiltersUnavailable(t *testing.T) {
	origin := models.Coord{Lat: 40.7128, Lng: -74.0060}
	src := &fakeSource{drivers: []models.Driver{
		{ID: "far", Loc: models.Coord{Lat: 40.7589, Lng: -73.9851}, Available: true},
		{ID: "near", Loc: models.Coord{Lat: 40.7200, Lng: -74.0000}, Available: true},
		{ID: "busy", Loc: models.Coord{Lat: 40.7130, Lng: -74.0061}, Available: false},
	}}
	got := NewSearch(src).Nearby(origin, 10000)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Driver.ID != "near" || got[1].Driver.ID != "far" {
		t.Fatalf("expected ascending distance order, got %s then %s", got[0].Driver.ID, got[1].Driver.ID)
	}
}
