package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/access-rides/internal/models"
)

// PushDispatcher tries the driver's live websocket session first and falls
// back to an HTTP push provider endpoint when the driver is offline.
type PushDispatcher struct {
	Endpoint string
	Client   *http.Client
	WS       *WSRegistry
}

func NewPushDispatcher(endpoint string, ws *WSRegistry) *PushDispatcher {
	return &PushDispatcher{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}, WS: ws}
}

func (p *PushDispatcher) Offer(driverID string, offer models.MatchOffer) error {
	if p.WS != nil {
		if err := p.WS.Offer(driverID, offer); err == nil {
			return nil
		}
	}
	if p.Endpoint == "" {
		return ErrNoSession
	}
	b, _ := json.Marshal(map[string]any{"driver_id": driverID, "offer": offer})
	_, err := p.Client.Post(p.Endpoint, "application/json", bytes.NewReader(b))
	return err
}
