package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/access-rides/internal/models"
)

// FCMDispatcher posts ride offers to an FCM HTTPv1 endpoint using a server
// key or oauth token. Token resolution per driver is left to the push
// backend; we send the driver id in the data payload.
type FCMDispatcher struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewFCMDispatcher(endpoint, key string) *FCMDispatcher {
	return &FCMDispatcher{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (f *FCMDispatcher) Offer(driverID string, offer models.MatchOffer) error {
	body := map[string]interface{}{
		"message": map[string]interface{}{
			"data": map[string]interface{}{"driver_id": driverID, "offer": offer},
		},
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest("POST", f.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.Key != "" {
		req.Header.Set("Authorization", "Bearer "+f.Key)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
