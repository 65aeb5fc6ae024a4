package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/example/access-rides/internal/models"
)

var ErrRideNotFound = errors.New("ride not found")

// RideStore defines persistence operations for rides. Implementations must
// hand out copies; callers mutate through UpdateRide only.
type RideStore interface {
	SaveRide(r models.Ride) error
	GetRide(id string) (models.Ride, error)
	UpdateRide(r models.Ride) error
	RidesByDriver(driverID string) ([]models.Ride, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	rides map[string]models.Ride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]models.Ride)}
}

func (m *MemoryStore) SaveRide(r models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) GetRide(id string) (models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return models.Ride{}, ErrRideNotFound
	}
	return r, nil
}

func (m *MemoryStore) UpdateRide(r models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[r.ID]; !ok {
		return ErrRideNotFound
	}
	m.rides[r.ID] = r
	return nil
}

// RidesByDriver returns the driver's rides sorted by creation time so
// rating recomputation reads a stable snapshot.
func (m *MemoryStore) RidesByDriver(driverID string) ([]models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Ride, 0)
	for _, r := range m.rides {
		if r.DriverID == driverID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
