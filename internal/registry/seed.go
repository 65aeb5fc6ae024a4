package registry

import (
	"time"

	"github.com/example/access-rides/internal/models"
)

// Seed installs a small fleet of accessible-vehicle drivers for local runs
// and tests. Location timestamps are backdated ten minutes so stale-location
// handling can be exercised without waiting.
func Seed(r *Registry) {
	stamp := time.Now().Add(-10 * time.Minute)
	for _, d := range []models.Driver{
		{
			ID: "driver_1", Name: "Marcus Webb", Phone: "+1-555-0131",
			Rating: 4.8,
			Vehicle: models.Vehicle{
				Make: "Toyota", Model: "Sienna", Year: 2022, Color: "Silver", Plate: "ACC-1042",
				AccessibilityFeatures: []string{"wheelchair_accessible", "voice_guidance"},
			},
			Loc:         models.Coord{Lat: 40.7128, Lng: -74.0060},
			LastUpdated: stamp,
			Available:   true,
			Languages:   []string{"en", "es"},
		},
		{
			ID: "driver_2", Name: "Elena Vasquez", Phone: "+1-555-0177",
			Rating: 4.9,
			Vehicle: models.Vehicle{
				Make: "Honda", Model: "Odyssey", Year: 2023, Color: "Blue", Plate: "ACC-2215",
				AccessibilityFeatures: []string{"sign_language_support", "voice_guidance"},
			},
			Loc:         models.Coord{Lat: 40.7589, Lng: -73.9851},
			LastUpdated: stamp,
			Available:   true,
			Languages:   []string{"en", "asl"},
		},
		{
			ID: "driver_3", Name: "Priya Nair", Phone: "+1-555-0190",
			Rating: 4.7,
			Vehicle: models.Vehicle{
				Make: "Ford", Model: "Transit", Year: 2021, Color: "White", Plate: "ACC-3378",
				AccessibilityFeatures: []string{"wheelchair_accessible", "hearing_loop"},
			},
			Loc:         models.Coord{Lat: 40.7282, Lng: -73.9942},
			LastUpdated: stamp,
			Available:   true,
			Languages:   []string{"en", "hi"},
		},
	} {
		r.Upsert(d)
	}
}
