package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Vehicle describes the car a driver operates, including the accessibility
// equipment it carries. Feature tags are free-form strings such as
// "wheelchair_accessible" or "sign_language_support".
type Vehicle struct {
	Make                  string   `json:"make"`
	Model                 string   `json:"model"`
	Year                  int      `json:"year"`
	Color                 string   `json:"color"`
	Plate                 string   `json:"plate"`
	AccessibilityFeatures []string `json:"accessibility_features"`
}

type Driver struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Rating      float64   `json:"rating"` // 1..5, mean over rated rides
	Vehicle     Vehicle   `json:"vehicle"`
	Loc         Coord     `json:"loc"`
	LastUpdated time.Time `json:"last_updated"`
	Available   bool      `json:"available"`
	Languages   []string  `json:"languages"`
}

// PublicView reduces a driver record to what passenger clients are shown.
func (d Driver) PublicView() DriverSummary {
	return DriverSummary{
		ID:      d.ID,
		Name:    d.Name,
		Phone:   d.Phone,
		Rating:  d.Rating,
		Vehicle: d.Vehicle,
	}
}

type DriverSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Rating  float64 `json:"rating"`
	Vehicle Vehicle `json:"vehicle"`
}

type RideStatus string

const (
	StatusRequested  RideStatus = "requested"
	StatusAssigned   RideStatus = "assigned"
	StatusInProgress RideStatus = "in_progress"
	StatusCompleted  RideStatus = "completed"
	StatusCancelled  RideStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s RideStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Ride struct {
	ID                  string     `json:"id"`
	PassengerID         string     `json:"passenger_id"`
	DriverID            string     `json:"driver_id,omitempty"`
	PickupLocation      string     `json:"pickup_location"`
	Destination         string     `json:"destination"`
	PickupCoord         *Coord     `json:"pickup_coord,omitempty"`
	RideType            string     `json:"ride_type"`
	SpecialRequirements []string   `json:"special_requirements,omitempty"`
	Status              RideStatus `json:"status"`
	Fare                float64    `json:"fare"`
	PaymentIntentID     string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	EstimatedArrival    time.Time  `json:"estimated_arrival"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason  string     `json:"cancellation_reason,omitempty"`
	Rating              int        `json:"rating,omitempty"`
	Feedback            string     `json:"feedback,omitempty"`
	RatedAt             *time.Time `json:"rated_at,omitempty"`
}

// RideRequest is the booking input. PickupCoord is optional; when present
// the matcher ranks capability matches by distance to it.
type RideRequest struct {
	PassengerID         string   `json:"passenger_id"`
	PickupLocation      string   `json:"pickup_location"`
	Destination         string   `json:"destination"`
	PickupCoord         *Coord   `json:"pickup_coord,omitempty"`
	RideType            string   `json:"ride_type"`
	SpecialRequirements []string `json:"special_requirements,omitempty"`
	EstimatedFare       float64  `json:"estimated_fare"`
}

// MatchOffer is what gets pushed to the chosen driver's session.
type MatchOffer struct {
	RideID         string  `json:"ride_id"`
	DriverID       string  `json:"driver_id"`
	PickupLocation string  `json:"pickup_location"`
	Destination    string  `json:"destination"`
	ETASeconds     float64 `json:"eta_seconds"`
	DistanceMeters float64 `json:"distance_meters"`
}

type SenderType string

const (
	SenderDriver    SenderType = "driver"
	SenderPassenger SenderType = "passenger"
)

func (s SenderType) Valid() bool { return s == SenderDriver || s == SenderPassenger }

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
	MessageImage MessageType = "image"
)

func (m MessageType) Valid() bool {
	return m == MessageText || m == MessageVoice || m == MessageImage
}

// ChatMessage is append-only; IsRead is the only field mutated after
// creation.
type ChatMessage struct {
	ID            string      `json:"id"`
	RideID        string      `json:"ride_id"`
	SenderID      string      `json:"sender_id"`
	SenderType    SenderType  `json:"sender_type"`
	Message       string      `json:"message"`
	MessageType   MessageType `json:"message_type"`
	AudioURL      string      `json:"audio_url,omitempty"`
	Transcription string      `json:"transcription,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	IsRead        bool        `json:"is_read"`
}

// DriverLocation is the Kafka payload for driver position updates.
type DriverLocation struct {
	DriverID  string    `json:"driver_id"`
	Loc       Coord     `json:"loc"`
	Available bool      `json:"available"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
