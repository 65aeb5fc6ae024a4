package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/example/access-rides/internal/models"
)

func testRegistry() *WSRegistry {
	return NewWSRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRemoveIgnoresStaleConnection(t *testing.T) {
	r := testRegistry()
	first := &websocket.Conn{}
	second := &websocket.Conn{}

	r.Add("driver_1", first)
	// driver reconnects before the old read loop notices the drop
	r.Add("driver_1", second)

	r.Remove("driver_1", first)
	if !r.Connected("driver_1") {
		t.Fatal("replacement session must survive a stale remove")
	}

	r.Remove("driver_1", second)
	if r.Connected("driver_1") {
		t.Fatal("removing the live connection must drop the session")
	}
}

func TestRemoveUnknownDriverIsNoop(t *testing.T) {
	r := testRegistry()
	r.Remove("driver_1", &websocket.Conn{})
	if r.Connected("driver_1") {
		t.Fatal("registry should stay empty")
	}
}

func TestPushWithoutSession(t *testing.T) {
	r := testRegistry()
	var nse *NoSessionError
	if err := r.Offer("driver_1", models.MatchOffer{RideID: "r1", DriverID: "driver_1"}); !errors.As(err, &nse) {
		t.Fatalf("expected NoSessionError, got %v", err)
	}
}
