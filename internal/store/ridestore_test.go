package store

import (
	"errors"
	"testing"
	"time"

	"github.com/example/access-rides/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ride := models.Ride{ID: "r1", PassengerID: "p1", DriverID: "d1", Status: models.StatusAssigned, CreatedAt: time.Now()}
	if err := st.SaveRide(ride); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetRide("r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PassengerID != "p1" || got.Status != models.StatusAssigned {
		t.Fatalf("bad round trip: %+v", got)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.GetRide("ghost"); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
	if err := st.UpdateRide(models.Ride{ID: "ghost"}); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("update: expected ErrRideNotFound, got %v", err)
	}
}

func TestRidesByDriverSortedByCreation(t *testing.T) {
	st := NewMemoryStore()
	base := time.Now()
	for i, id := range []string{"r3", "r1", "r2"} {
		_ = st.SaveRide(models.Ride{ID: id, DriverID: "d1", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	_ = st.SaveRide(models.Ride{ID: "other", DriverID: "d2", CreatedAt: base})

	rides, err := st.RidesByDriver("d1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rides) != 3 {
		t.Fatalf("expected 3 rides, got %d", len(rides))
	}
	for i := 1; i < len(rides); i++ {
		if rides[i].CreatedAt.Before(rides[i-1].CreatedAt) {
			t.Fatal("rides not sorted by creation time")
		}
	}
}

func TestUpdateDoesNotLeakSharedState(t *testing.T) {
	st := NewMemoryStore()
	ride := models.Ride{ID: "r1", Status: models.StatusAssigned}
	_ = st.SaveRide(ride)

	got, _ := st.GetRide("r1")
	got.Status = models.StatusCancelled // mutate the copy only

	stored, _ := st.GetRide("r1")
	if stored.Status != models.StatusAssigned {
		t.Fatal("store must hand out copies")
	}
}
