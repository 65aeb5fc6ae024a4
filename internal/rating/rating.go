package rating

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/access-rides/internal/models"
	"github.com/example/access-rides/internal/observability"
	"github.com/example/access-rides/internal/store"
)

var (
	ErrInvalidRating    = errors.New("rating must be an integer between 1 and 5")
	ErrRideNotCompleted = errors.New("only completed rides can be rated")
	ErrAlreadyRated     = errors.New("ride has already been rated")
)

// DriverRatings is the slice of the registry the aggregator writes back to.
type DriverRatings interface {
	SetRating(id string, rating float64) error
}

// Aggregator folds passenger ratings into a driver's running average. The
// average is recomputed from scratch over all of the driver's rated rides
// on every call; at our scale the full scan is cheaper than keeping an
// incremental pair consistent.
type Aggregator struct {
	mu      sync.Mutex
	Store   store.RideStore
	Drivers DriverRatings
	Logger  *slog.Logger
}

// Result carries the updated ride and the driver's recomputed average.
type Result struct {
	Ride         models.Ride
	DriverRating float64
}

// Rate validates and records a rating on a completed ride, then recomputes
// the driver's average. A second rating on the same ride is rejected. On
// any failure neither ride nor driver state changes: the recompute inputs
// are gathered before the ride is written, and a failed driver write rolls
// the ride back.
func (a *Aggregator) Rate(rideID string, rating int, feedback string) (Result, error) {
	if rating < 1 || rating > 5 {
		return Result{}, ErrInvalidRating
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ride, err := a.Store.GetRide(rideID)
	if err != nil {
		return Result{}, err
	}
	if ride.Status != models.StatusCompleted {
		return Result{}, ErrRideNotCompleted
	}
	if ride.Rating != 0 {
		return Result{}, ErrAlreadyRated
	}

	// full scan over the driver's rides, folding the new rating in; this
	// ride cannot appear rated yet, the AlreadyRated guard just ran
	rides, err := a.Store.RidesByDriver(ride.DriverID)
	if err != nil {
		return Result{}, err
	}
	sum, count := rating, 1
	for _, r := range rides {
		if r.Rating > 0 {
			sum += r.Rating
			count++
		}
	}
	avg := float64(sum) / float64(count)

	original := ride
	now := time.Now()
	ride.Rating = rating
	ride.Feedback = feedback
	ride.RatedAt = &now
	ride.UpdatedAt = now
	if err := a.Store.UpdateRide(ride); err != nil {
		return Result{}, err
	}
	if err := a.Drivers.SetRating(ride.DriverID, avg); err != nil {
		// roll the ride back so the failed call leaves no trace
		if rbErr := a.Store.UpdateRide(original); rbErr != nil {
			a.Logger.Error("ride rating rollback failed", "ride_id", rideID, "error", rbErr)
		}
		return Result{}, err
	}

	observability.RatingsTotal.Inc()
	a.Logger.Info("ride rated", "ride_id", rideID, "rating", rating, "driver_avg", avg)
	return Result{Ride: ride, DriverRating: avg}, nil
}
