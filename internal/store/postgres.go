package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/example/access-rides/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveRide(r models.Ride) error {
	_, err := p.db.Exec(`INSERT INTO rides(
		id, passenger_id, driver_id, pickup_location, destination, ride_type,
		special_requirements, status, fare, payment_intent_id,
		created_at, updated_at, estimated_arrival)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.ID, r.PassengerID, r.DriverID, r.PickupLocation, r.Destination, r.RideType,
		pq.Array(r.SpecialRequirements), string(r.Status), r.Fare, r.PaymentIntentID,
		r.CreatedAt, r.UpdatedAt, r.EstimatedArrival)
	return err
}

func (p *PostgresStore) GetRide(id string) (models.Ride, error) {
	row := p.db.QueryRow(`SELECT id, passenger_id, driver_id, pickup_location, destination,
		ride_type, special_requirements, status, fare, payment_intent_id,
		created_at, updated_at, estimated_arrival, completed_at, cancelled_at,
		cancellation_reason, rating, feedback, rated_at
		FROM rides WHERE id=$1`, id)
	r, err := scanRide(row)
	if err == sql.ErrNoRows {
		return models.Ride{}, ErrRideNotFound
	}
	return r, err
}

func (p *PostgresStore) UpdateRide(r models.Ride) error {
	res, err := p.db.Exec(`UPDATE rides SET driver_id=$1, status=$2, updated_at=$3,
		completed_at=$4, cancelled_at=$5, cancellation_reason=$6,
		rating=$7, feedback=$8, rated_at=$9, payment_intent_id=$10
		WHERE id=$11`,
		r.DriverID, string(r.Status), time.Now(),
		r.CompletedAt, r.CancelledAt, nullString(r.CancellationReason),
		nullInt(r.Rating), nullString(r.Feedback), r.RatedAt, r.PaymentIntentID,
		r.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRideNotFound
	}
	return nil
}

func (p *PostgresStore) RidesByDriver(driverID string) ([]models.Ride, error) {
	rows, err := p.db.Query(`SELECT id, passenger_id, driver_id, pickup_location, destination,
		ride_type, special_requirements, status, fare, payment_intent_id,
		created_at, updated_at, estimated_arrival, completed_at, cancelled_at,
		cancellation_reason, rating, feedback, rated_at
		FROM rides WHERE driver_id=$1 ORDER BY created_at`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (models.Ride, error) {
	var r models.Ride
	var status string
	var reqs pq.StringArray
	var reason, feedback sql.NullString
	var rating sql.NullInt64
	var completedAt, cancelledAt, ratedAt sql.NullTime
	err := row.Scan(&r.ID, &r.PassengerID, &r.DriverID, &r.PickupLocation, &r.Destination,
		&r.RideType, &reqs, &status, &r.Fare, &r.PaymentIntentID,
		&r.CreatedAt, &r.UpdatedAt, &r.EstimatedArrival, &completedAt, &cancelledAt,
		&reason, &rating, &feedback, &ratedAt)
	if err != nil {
		return models.Ride{}, err
	}
	r.Status = models.RideStatus(status)
	r.SpecialRequirements = []string(reqs)
	r.CancellationReason = reason.String
	r.Feedback = feedback.String
	r.Rating = int(rating.Int64)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		r.CancelledAt = &t
	}
	if ratedAt.Valid {
		t := ratedAt.Time
		r.RatedAt = &t
	}
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
