package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/access-rides/internal/dispatch"
	"github.com/example/access-rides/internal/match"
	"github.com/example/access-rides/internal/models"
	"github.com/example/access-rides/internal/observability"
	"github.com/example/access-rides/internal/payments"
	"github.com/example/access-rides/internal/store"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyTerminal   = errors.New("ride already in a terminal state")
)

// ValidationError reports a missing or malformed booking field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("missing required field: %s", e.Field) }

// DriverDirectory is the slice of the registry the lifecycle mutates.
type DriverDirectory interface {
	FindByID(id string) (models.Driver, error)
	SetAvailability(id string, available bool) error
	UpdateLocation(id string, loc models.Coord) error
}

// LocationPublisher forwards driver position updates to the ingest stream.
type LocationPublisher interface {
	PublishLocation(loc models.DriverLocation) error
}

// Service owns the ride state machine and its side effects on driver
// availability. A single write lock serializes match+assign, status
// transitions, cancellation, and the availability flips they imply, so two
// concurrent bookings can never double-assign a driver.
type Service struct {
	mu sync.Mutex

	Store    store.RideStore
	Drivers  DriverDirectory
	Matcher  *match.Engine
	Dispatch dispatch.Dispatcher
	Payments payments.Client   // optional fare holds
	Producer LocationPublisher // optional kafka mirror of location updates
	Logger   *slog.Logger

	ArrivalLeadTime time.Duration
	FareCurrency    string
}

// legal transitions out of each non-terminal state. Cancellation is
// reachable from every non-terminal state and handled separately.
var transitions = map[models.RideStatus][]models.RideStatus{
	models.StatusRequested:  {models.StatusAssigned, models.StatusInProgress},
	models.StatusAssigned:   {models.StatusInProgress},
	models.StatusInProgress: {models.StatusCompleted},
}

func legalTransition(from, to models.RideStatus) bool {
	if to == models.StatusCancelled {
		return !from.Terminal()
	}
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Create books a ride: validates the request, matches a driver, and
// persists the ride already assigned. When no capable driver is available
// the ride is not persisted and match.ErrNoDriverAvailable is returned.
func (s *Service) Create(ctx context.Context, req models.RideRequest) (models.Ride, models.Driver, error) {
	if req.PassengerID == "" {
		return models.Ride{}, models.Driver{}, &ValidationError{Field: "passenger_id"}
	}
	if req.PickupLocation == "" {
		return models.Ride{}, models.Driver{}, &ValidationError{Field: "pickup_location"}
	}
	if req.Destination == "" {
		return models.Ride{}, models.Driver{}, &ValidationError{Field: "destination"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cand, err := s.Matcher.Match(req)
	if err != nil {
		observability.MatchFailures.Inc()
		return models.Ride{}, models.Driver{}, err
	}
	driver := cand.Driver

	now := time.Now()
	ride := models.Ride{
		ID:                  uuid.NewString(),
		PassengerID:         req.PassengerID,
		DriverID:            driver.ID,
		PickupLocation:      req.PickupLocation,
		Destination:         req.Destination,
		PickupCoord:         req.PickupCoord,
		RideType:            req.RideType,
		SpecialRequirements: req.SpecialRequirements,
		Status:              models.StatusAssigned,
		Fare:                req.EstimatedFare,
		CreatedAt:           now,
		UpdatedAt:           now,
		EstimatedArrival:    now.Add(s.ArrivalLeadTime),
	}

	if s.Payments != nil && ride.Fare > 0 {
		// best-effort hold; a declined hold must not block an accessible ride
		if piID, err := s.Payments.Hold(ctx, int64(ride.Fare*100), s.FareCurrency, req.PassengerID); err == nil {
			ride.PaymentIntentID = piID
		} else {
			s.Logger.Warn("fare hold failed", "ride_id", ride.ID, "error", err)
		}
	}

	if err := s.Drivers.SetAvailability(driver.ID, false); err != nil {
		return models.Ride{}, models.Driver{}, err
	}
	if err := s.Store.SaveRide(ride); err != nil {
		// roll the availability flip back so the failed booking leaves no trace
		if rbErr := s.Drivers.SetAvailability(driver.ID, true); rbErr != nil {
			s.Logger.Error("availability rollback failed", "driver_id", driver.ID, "error", rbErr)
		}
		return models.Ride{}, models.Driver{}, err
	}

	observability.RidesBookedTotal.Inc()
	observability.DriversAvailable.Dec()
	s.Logger.Info("ride booked",
		"ride_id", ride.ID, "driver_id", driver.ID, "passenger_id", req.PassengerID,
		"requirements", req.SpecialRequirements)

	if s.Dispatch != nil {
		offer := models.MatchOffer{
			RideID:         ride.ID,
			DriverID:       driver.ID,
			PickupLocation: ride.PickupLocation,
			Destination:    ride.Destination,
			ETASeconds:     cand.ETASeconds,
			DistanceMeters: cand.DistanceMeters,
		}
		if err := s.Dispatch.Offer(driver.ID, offer); err != nil {
			s.Logger.Warn("offer dispatch failed", "ride_id", ride.ID, "driver_id", driver.ID, "error", err)
		}
	}

	return ride, driver, nil
}

// UpdateStatus moves a ride along the state machine, rejecting illegal
// transitions. An optional location is forwarded to the driver registry and
// the ingest stream. A failed transition leaves the ride unchanged.
func (s *Service) UpdateStatus(ctx context.Context, rideID string, newStatus models.RideStatus, loc *models.Coord) (models.Ride, error) {
	if !newStatus.Valid() {
		return models.Ride{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ride, err := s.Store.GetRide(rideID)
	if err != nil {
		return models.Ride{}, err
	}
	if !legalTransition(ride.Status, newStatus) {
		return models.Ride{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ride.Status, newStatus)
	}

	now := time.Now()
	ride.Status = newStatus
	ride.UpdatedAt = now
	switch newStatus {
	case models.StatusCompleted:
		ride.CompletedAt = &now
	case models.StatusCancelled:
		ride.CancelledAt = &now
	}
	if err := s.Store.UpdateRide(ride); err != nil {
		return models.Ride{}, err
	}

	switch newStatus {
	case models.StatusCompleted:
		s.releaseDriver(ride.DriverID)
		observability.RidesCompleted.Inc()
		if s.Payments != nil && ride.PaymentIntentID != "" {
			if err := s.Payments.Capture(ctx, ride.PaymentIntentID); err != nil {
				s.Logger.Warn("fare capture failed", "ride_id", ride.ID, "error", err)
			}
		}
	case models.StatusCancelled:
		s.releaseDriver(ride.DriverID)
		observability.RidesCancelled.Inc()
		if s.Payments != nil && ride.PaymentIntentID != "" {
			if err := s.Payments.Cancel(ctx, ride.PaymentIntentID); err != nil {
				s.Logger.Warn("fare release failed", "ride_id", ride.ID, "error", err)
			}
		}
	}

	if loc != nil && ride.DriverID != "" {
		if err := s.Drivers.UpdateLocation(ride.DriverID, *loc); err != nil {
			s.Logger.Warn("location update failed", "driver_id", ride.DriverID, "error", err)
		}
		s.publishLocation(ride.DriverID, *loc)
	}

	s.Logger.Info("ride status updated", "ride_id", ride.ID, "status", newStatus)
	return ride, nil
}

// Cancel terminates a non-terminal ride and releases its driver,
// symmetric with completion.
func (s *Service) Cancel(ctx context.Context, rideID, reason string) (models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, err := s.Store.GetRide(rideID)
	if err != nil {
		return models.Ride{}, err
	}
	if ride.Status.Terminal() {
		return models.Ride{}, ErrAlreadyTerminal
	}

	now := time.Now()
	ride.Status = models.StatusCancelled
	ride.CancelledAt = &now
	ride.UpdatedAt = now
	ride.CancellationReason = reason
	if err := s.Store.UpdateRide(ride); err != nil {
		return models.Ride{}, err
	}

	s.releaseDriver(ride.DriverID)
	observability.RidesCancelled.Inc()
	if s.Payments != nil && ride.PaymentIntentID != "" {
		if err := s.Payments.Cancel(ctx, ride.PaymentIntentID); err != nil {
			s.Logger.Warn("fare release failed", "ride_id", ride.ID, "error", err)
		}
	}

	s.Logger.Info("ride cancelled", "ride_id", ride.ID, "reason", reason)
	return ride, nil
}

// RecordDriverLocation handles out-of-ride position pings from driver
// clients, updating the registry and mirroring to the ingest stream.
func (s *Service) RecordDriverLocation(driverID string, loc models.Coord) error {
	if err := s.Drivers.UpdateLocation(driverID, loc); err != nil {
		return err
	}
	s.publishLocation(driverID, loc)
	return nil
}

func (s *Service) releaseDriver(driverID string) {
	if driverID == "" {
		return
	}
	if err := s.Drivers.SetAvailability(driverID, true); err != nil {
		s.Logger.Error("driver release failed", "driver_id", driverID, "error", err)
		return
	}
	observability.DriversAvailable.Inc()
}

func (s *Service) publishLocation(driverID string, loc models.Coord) {
	if s.Producer == nil {
		return
	}
	d, err := s.Drivers.FindByID(driverID)
	if err != nil {
		return
	}
	msg := models.DriverLocation{
		DriverID:  driverID,
		Loc:       loc,
		Available: d.Available,
		Rating:    d.Rating,
		Timestamp: time.Now(),
	}
	if err := s.Producer.PublishLocation(msg); err != nil {
		s.Logger.Warn("location publish failed", "driver_id", driverID, "error", err)
	}
}
