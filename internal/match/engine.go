package match

import (
	"errors"
	"sort"

	"github.com/example/access-rides/internal/config"
	"github.com/example/access-rides/internal/eta"
	"github.com/example/access-rides/internal/geo"
	"github.com/example/access-rides/internal/models"
)

var ErrNoDriverAvailable = errors.New("no driver available")

// DriverSource supplies the availability snapshot the engine matches over.
type DriverSource interface {
	ListAvailable() []models.Driver
}

// Engine picks an available driver whose vehicle covers the requested
// accessibility features. The capability policy is configurable: "any"
// matches a driver carrying at least one requested feature (production
// behavior), "all" requires full coverage.
type Engine struct {
	Drivers         DriverSource
	Policy          config.MatchPolicy
	DefaultSpeedMps float64
	ETAClient       eta.Client // optional routing engine
	ETACache        *eta.Cache // optional ETA cache
}

// Candidate is a matched driver with pickup estimates. Estimates are zero
// when the request carries no pickup coordinates.
type Candidate struct {
	Driver         models.Driver
	DistanceMeters float64
	ETASeconds     float64
}

// Match returns the best capability-matching available driver. Candidates
// are ranked by distance to the pickup point when coordinates are present,
// with rating descending as the tie-break; otherwise registry id order
// decides.
func (e *Engine) Match(req models.RideRequest) (Candidate, error) {
	avail := e.Drivers.ListAvailable()
	cands := make([]Candidate, 0, len(avail))
	for _, d := range avail {
		if !e.capabilityMatch(d.Vehicle.AccessibilityFeatures, req.SpecialRequirements) {
			continue
		}
		c := Candidate{Driver: d}
		if req.PickupCoord != nil {
			c.DistanceMeters = geo.Haversine(req.PickupCoord.Lat, req.PickupCoord.Lng, d.Loc.Lat, d.Loc.Lng)
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return Candidate{}, ErrNoDriverAvailable
	}
	if req.PickupCoord != nil {
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].DistanceMeters != cands[j].DistanceMeters {
				return cands[i].DistanceMeters < cands[j].DistanceMeters
			}
			return cands[i].Driver.Rating > cands[j].Driver.Rating
		})
	}
	best := cands[0]
	if req.PickupCoord != nil {
		best.ETASeconds = e.estimate(best.Driver.Loc, *req.PickupCoord)
	}
	return best, nil
}

func (e *Engine) capabilityMatch(features, required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]bool, len(features))
	for _, f := range features {
		have[f] = true
	}
	if e.Policy == config.MatchAll {
		for _, r := range required {
			if !have[r] {
				return false
			}
		}
		return true
	}
	for _, r := range required {
		if have[r] {
			return true
		}
	}
	return false
}

func (e *Engine) estimate(from, to models.Coord) float64 {
	if e.ETACache != nil {
		if v, ok := e.ETACache.Get(from, to); ok {
			return v
		}
	}
	if e.ETAClient != nil {
		if v, err := e.ETAClient.EstimateSeconds(from, to); err == nil {
			if e.ETACache != nil {
				e.ETACache.Set(from, to, v)
			}
			return v
		}
	}
	return eta.EstimateSeconds(from, to, e.DefaultSpeedMps)
}
