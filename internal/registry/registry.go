package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/access-rides/internal/models"
)

var ErrDriverNotFound = errors.New("driver not found")

// Registry is the in-memory driver registry. All reads hand out copies so
// callers can never mutate a record outside the registry lock.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]models.Driver
}

func New() *Registry {
	return &Registry{drivers: make(map[string]models.Driver)}
}

func (r *Registry) Upsert(d models.Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.ID] = d
}

func (r *Registry) FindByID(id string) (models.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[id]
	if !ok {
		return models.Driver{}, ErrDriverNotFound
	}
	return d, nil
}

// List returns every driver sorted ascending by id.
func (r *Registry) List() []models.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListAvailable returns available drivers sorted ascending by id, so
// matching is deterministic regardless of map iteration order.
func (r *Registry) ListAvailable() []models.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		if d.Available {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) SetAvailability(id string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return ErrDriverNotFound
	}
	d.Available = available
	r.drivers[id] = d
	return nil
}

func (r *Registry) UpdateLocation(id string, loc models.Coord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return ErrDriverNotFound
	}
	d.Loc = loc
	d.LastUpdated = time.Now()
	r.drivers[id] = d
	return nil
}

func (r *Registry) SetRating(id string, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return ErrDriverNotFound
	}
	d.Rating = rating
	r.drivers[id] = d
	return nil
}
