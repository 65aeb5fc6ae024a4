package chat

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/access-rides/internal/models"
	"github.com/example/access-rides/internal/observability"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidMessage  = errors.New("invalid message")
)

// RideChecker verifies a ride exists before a message is accepted. Wiring
// it is optional; the ledger itself only needs the ride id as a key.
type RideChecker interface {
	GetRide(id string) (models.Ride, error)
}

// PostInput is the write shape for a new chat message. Timestamp may be
// set by callers replaying history; zero means now.
type PostInput struct {
	RideID        string
	SenderID      string
	SenderType    models.SenderType
	Message       string
	MessageType   models.MessageType
	AudioURL      string
	Transcription string
	Timestamp     time.Time
}

// Ledger stores per-ride messages. Messages are append-only; the read flag
// is the only field mutated after creation, and removal happens only
// through the explicit moderation Delete.
type Ledger struct {
	mu     sync.RWMutex
	byRide map[string][]*models.ChatMessage
	byID   map[string]*models.ChatMessage

	Rides RideChecker // optional existence check
}

func NewLedger(rides RideChecker) *Ledger {
	return &Ledger{
		byRide: make(map[string][]*models.ChatMessage),
		byID:   make(map[string]*models.ChatMessage),
		Rides:  rides,
	}
}

func (l *Ledger) Post(in PostInput) (models.ChatMessage, error) {
	if in.RideID == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: missing ride_id", ErrInvalidMessage)
	}
	if in.SenderID == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: missing sender_id", ErrInvalidMessage)
	}
	if !in.SenderType.Valid() {
		return models.ChatMessage{}, fmt.Errorf("%w: bad sender_type %q", ErrInvalidMessage, in.SenderType)
	}
	if in.Message == "" && in.AudioURL == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: empty message", ErrInvalidMessage)
	}
	if in.MessageType == "" {
		in.MessageType = models.MessageText
	}
	if !in.MessageType.Valid() {
		return models.ChatMessage{}, fmt.Errorf("%w: bad message_type %q", ErrInvalidMessage, in.MessageType)
	}
	if l.Rides != nil {
		if _, err := l.Rides.GetRide(in.RideID); err != nil {
			return models.ChatMessage{}, err
		}
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := &models.ChatMessage{
		ID:            uuid.NewString(),
		RideID:        in.RideID,
		SenderID:      in.SenderID,
		SenderType:    in.SenderType,
		Message:       in.Message,
		MessageType:   in.MessageType,
		AudioURL:      in.AudioURL,
		Transcription: in.Transcription,
		Timestamp:     ts,
	}

	l.mu.Lock()
	l.byRide[in.RideID] = append(l.byRide[in.RideID], msg)
	l.byID[msg.ID] = msg
	l.mu.Unlock()

	observability.ChatMessages.Inc()
	return *msg, nil
}

// List returns a page of the ride's messages in ascending timestamp order,
// plus the total count for pagination.
func (l *Ledger) List(rideID string, limit, offset int) ([]models.ChatMessage, int) {
	l.mu.RLock()
	msgs := l.byRide[rideID]
	sorted := make([]*models.ChatMessage, len(msgs))
	copy(sorted, msgs)
	l.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	total := len(sorted)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]models.ChatMessage, 0, end-offset)
	for _, m := range sorted[offset:end] {
		out = append(out, *m)
	}
	return out, total
}

// MarkRead marks every message in the ride not authored by the given
// identity as read, i.e. the other party's messages. Returns the number of
// messages newly marked.
func (l *Ledger) MarkRead(rideID, userID string, userType models.SenderType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.byRide[rideID] {
		if m.SenderType == userType && m.SenderID == userID {
			continue
		}
		if !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n
}

// UnreadCount counts unread messages across all rides not sent by the given
// party. The comparison is by sender type only, matching the shipped
// behavior; full-identity exclusion would be stricter in multi-party rides.
func (l *Ledger) UnreadCount(userID string, userType models.SenderType) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, msgs := range l.byRide {
		for _, m := range msgs {
			if m.SenderType != userType && !m.IsRead {
				n++
			}
		}
	}
	return n
}

// AverageResponseTimeMinutes averages the gaps between consecutive messages
// authored by different senders across every ride. Rides with no
// alternation contribute nothing; zero is returned when no gaps exist.
func (l *Ledger) AverageResponseTimeMinutes() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total time.Duration
	var gaps int
	for _, msgs := range l.byRide {
		sorted := make([]*models.ChatMessage, len(msgs))
		copy(sorted, msgs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
		for i := 1; i < len(sorted); i++ {
			if sorted[i].SenderType != sorted[i-1].SenderType {
				total += sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
				gaps++
			}
		}
	}
	if gaps == 0 {
		return 0
	}
	return total.Minutes() / float64(gaps)
}

// Delete removes a message. This exists for moderation only; normal flows
// never delete chat history.
func (l *Ledger) Delete(messageID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byID[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	delete(l.byID, messageID)
	msgs := l.byRide[m.RideID]
	for i, cand := range msgs {
		if cand.ID == messageID {
			l.byRide[m.RideID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}
