package dispatch

import "github.com/example/access-rides/internal/models"

// Dispatcher delivers a ride offer to the chosen driver. Delivery is
// best-effort; the booking flow never fails on a dispatch error.
type Dispatcher interface {
	Offer(driverID string, offer models.MatchOffer) error
}

// Nop discards offers; used when no delivery channel is configured.
type Nop struct{}

func (Nop) Offer(driverID string, offer models.MatchOffer) error { return nil }
