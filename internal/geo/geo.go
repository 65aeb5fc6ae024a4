package geo

import (
	"math"
	"sort"

	"github.com/example/access-rides/internal/models"
)

// DriverSource supplies the availability snapshot a search runs over.
type DriverSource interface {
	ListAvailable() []models.Driver
}

// Result pairs a driver with their great-circle distance from the origin.
type Result struct {
	Driver         models.Driver `json:"driver"`
	DistanceMeters float64       `json:"distance_meters"`
}

// Search filters and sorts available drivers by distance. It is a pure
// function over a snapshot of the source and is safe to call concurrently.
type Search struct {
	Source DriverSource
}

func NewSearch(src DriverSource) *Search { return &Search{Source: src} }

// Nearby returns available drivers within radiusMeters of origin, sorted
// ascending by distance.
func (s *Search) Nearby(origin models.Coord, radiusMeters float64) []Result {
	drivers := s.Source.ListAvailable()
	out := make([]Result, 0, len(drivers))
	for _, d := range drivers {
		dist := Haversine(origin.Lat, origin.Lng, d.Loc.Lat, d.Loc.Lng)
		if dist > radiusMeters {
			continue
		}
		out = append(out, Result{Driver: d, DistanceMeters: dist})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out
}

// Haversine distance in meters
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
