package match

import (
	"errors"
	"testing"

	"github.com/example/access-rides/internal/config"
	"github.com/example/access-rides/internal/models"
)

type fakeSource struct{ drivers []models.Driver }

func (f *fakeSource) ListAvailable() []models.Driver { return f.drivers }

func driverWith(id string, rating float64, loc models.Coord, features ...string) models.Driver {
	return models.Driver{
		ID: id, Rating: rating, Loc: loc, Available: true,
		Vehicle: models.Vehicle{AccessibilityFeatures: features},
	}
}

func TestMatchRequiresCapability(t *testing.T) {
	src := &fakeSource{drivers: []models.Driver{
		driverWith("driver_1", 4.8, models.Coord{}, "wheelchair_accessible"),
		driverWith("driver_2", 4.9, models.Coord{}, "sign_language_support"),
	}}
	e := &Engine{Drivers: src, Policy: config.MatchAny}

	cand, err := e.Match(models.RideRequest{SpecialRequirements: []string{"sign_language_support"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand.Driver.ID != "driver_2" {
		t.Fatalf("expected driver_2, got %s", cand.Driver.ID)
	}
}

func TestMatchFailsWhenNoCapableDriver(t *testing.T) {
	// drivers are available, just not for this requirement
	src := &fakeSource{drivers: []models.Driver{
		driverWith("driver_1", 4.8, models.Coord{}, "wheelchair_accessible"),
	}}
	e := &Engine{Drivers: src, Policy: config.MatchAny}

	_, err := e.Match(models.RideRequest{SpecialRequirements: []string{"sign_language_support"}})
	if !errors.Is(err, ErrNoDriverAvailable) {
		t.Fatalf("expected ErrNoDriverAvailable, got %v", err)
	}
}

func TestMatchAnyVersusAllPolicy(t *testing.T) {
	src := &fakeSource{drivers: []models.Driver{
		driverWith("driver_1", 4.8, models.Coord{}, "wheelchair_accessible"),
	}}
	req := models.RideRequest{SpecialRequirements: []string{"wheelchair_accessible", "sign_language_support"}}

	anyEngine := &Engine{Drivers: src, Policy: config.MatchAny}
	if _, err := anyEngine.Match(req); err != nil {
		t.Fatalf("any-policy should accept partial coverage: %v", err)
	}

	allEngine := &Engine{Drivers: src, Policy: config.MatchAll}
	if _, err := allEngine.Match(req); !errors.Is(err, ErrNoDriverAvailable) {
		t.Fatalf("all-policy should reject partial coverage, got %v", err)
	}
}

func TestMatchEmptyRequirementsTakesFirstByID(t *testing.T) {
	src := &fakeSource{drivers: []models.Driver{
		driverWith("driver_1", 4.0, models.Coord{}),
		driverWith("driver_2", 5.0, models.Coord{}),
	}}
	e := &Engine{Drivers: src, Policy: config.MatchAny}
	cand, err := e.Match(models.RideRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand.Driver.ID != "driver_1" {
		t.Fatalf("expected registry order winner driver_1, got %s", cand.Driver.ID)
	}
}

func TestMatchRanksByDistanceThenRating(t *testing.T) {
	pickup := &models.Coord{Lat: 40.7128, Lng: -74.0060}
	src := &fakeSource{drivers: []models.Driver{
		driverWith("far", 5.0, models.Coord{Lat: 40.7589, Lng: -73.9851}),
		driverWith("near", 4.2, models.Coord{Lat: 40.7150, Lng: -74.0050}),
	}}
	e := &Engine{Drivers: src, Policy: config.MatchAny, DefaultSpeedMps: 10}
	cand, err := e.Match(models.RideRequest{PickupCoord: pickup})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand.Driver.ID != "near" {
		t.Fatalf("expected nearest driver, got %s", cand.Driver.ID)
	}
	if cand.ETASeconds <= 0 {
		t.Fatalf("expected a positive ETA, got %f", cand.ETASeconds)
	}

	// equal positions: rating decides
	src.drivers = []models.Driver{
		driverWith("a", 4.0, *pickup),
		driverWith("b", 5.0, *pickup),
	}
	cand, err = e.Match(models.RideRequest{PickupCoord: pickup})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand.Driver.ID != "b" {
		t.Fatalf("expected higher-rated driver b, got %s", cand.Driver.ID)
	}
}
