package trip

import (
	"context"
	"errors"
	"time"

	"backend-fleetwatch/internal/db"
	"backend-fleetwatch/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrActiveTripExists is returned when a driver/vehicle pair already has
	// an open trip. At most one trip per pair is active at any time.
	ErrActiveTripExists = errors.New("active trip already exists for driver and vehicle")

	// ErrTripNotFound is returned when a sample or close request references a
	// trip that does not exist or is no longer active.
	ErrTripNotFound = errors.New("trip not found")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// StartTrip opens a trip for a driver/vehicle pair and records an initial
// zero-distance sample at the start coordinate, so every trip has at least
// one point for playback consumers.
func (s *Service) StartTrip(ctx context.Context, input Trip) (Trip, error) {
	var existing string
	err := s.db.QueryRow(ctx, `
		SELECT id FROM trips
		WHERE driver_id=$1 AND vehicle_id=$2 AND status=$3
	`, input.DriverID, input.VehicleID, StatusActive).Scan(&existing)
	if err == nil {
		return Trip{}, ErrActiveTripExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, err
	}

	input.ID = uuid.NewString()
	input.Status = StatusActive
	input.DistanceKm = 0
	input.MaxSpeedKmh = 0
	if input.StartedAt.IsZero() {
		input.StartedAt = time.Now()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, driver_id, vehicle_id, status, started_at, start_lat, start_lng, distance_km, max_speed_kmh)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,0)
		RETURNING started_at
	`, input.ID, input.DriverID, input.VehicleID, input.Status, input.StartedAt, input.StartLat, input.StartLng)
	if err := row.Scan(&input.StartedAt); err != nil {
		return Trip{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO location_samples (trip_id, lat, lng, speed_kmh, accuracy_m, recorded_at)
		VALUES ($1,$2,$3,NULL,NULL,$4)
	`, input.ID, input.StartLat, input.StartLng, input.StartedAt)
	if err != nil {
		return Trip{}, err
	}
	return input, nil
}

// IngestSample persists one GPS fix, advances the running distance from the
// previous known position, and raises max speed if the fix exceeds it. The
// updated totals are returned for the caller's live display.
func (s *Service) IngestSample(ctx context.Context, tripID string, input Sample) (Totals, error) {
	totals := Totals{TripID: tripID}
	err := s.db.QueryRow(ctx, `
		SELECT driver_id, vehicle_id FROM trips
		WHERE id=$1 AND status=$2
	`, tripID, StatusActive).Scan(&totals.DriverID, &totals.VehicleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Totals{}, ErrTripNotFound
	}
	if err != nil {
		return Totals{}, err
	}

	if input.RecordedAt.IsZero() {
		input.RecordedAt = time.Now()
	}

	var lastLat, lastLng float64
	havePrev := s.db.QueryRow(ctx, `
		SELECT lat, lng FROM location_samples
		WHERE trip_id=$1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, tripID).Scan(&lastLat, &lastLng) == nil

	row := s.db.QueryRow(ctx, `
		INSERT INTO location_samples (trip_id, lat, lng, speed_kmh, accuracy_m, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, tripID, input.Lat, input.Lng, input.SpeedKmh, input.AccuracyM, input.RecordedAt)
	if err := row.Scan(&input.ID); err != nil {
		return Totals{}, err
	}

	deltaKm := 0.0
	if havePrev {
		deltaKm = geo.HaversineKm(lastLat, lastLng, input.Lat, input.Lng)
	}
	speed := 0.0
	if input.SpeedKmh != nil {
		speed = *input.SpeedKmh
	}

	err = s.db.QueryRow(ctx, `
		UPDATE trips
		SET distance_km = distance_km + $2,
		    max_speed_kmh = GREATEST(max_speed_kmh, $3)
		WHERE id=$1
		RETURNING distance_km, max_speed_kmh
	`, tripID, deltaKm, speed).Scan(&totals.DistanceKm, &totals.MaxSpeedKmh)
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// EndTrip closes an active trip with the caller-supplied aggregates. Closing
// an already-completed trip is a no-op success, so a retried close request
// does not surface an error to the driver.
func (s *Service) EndTrip(ctx context.Context, tripID string, req CloseRequest) (Trip, error) {
	current, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return Trip{}, err
	}
	if current.Status == StatusCompleted {
		return current, nil
	}

	current.Status = StatusCompleted
	current.EndedAt = time.Now()
	current.EndLat = req.EndLat
	current.EndLng = req.EndLng
	current.DistanceKm = req.DistanceKm
	current.MaxSpeedKmh = req.MaxSpeedKmh
	current.AvgSpeedKmh = req.AvgSpeedKmh

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET status=$2, ended_at=$3, end_lat=$4, end_lng=$5,
		    distance_km=$6, max_speed_kmh=$7, avg_speed_kmh=$8
		WHERE id=$1
	`, current.ID, current.Status, current.EndedAt, current.EndLat, current.EndLng,
		current.DistanceKm, current.MaxSpeedKmh, current.AvgSpeedKmh)
	if err != nil {
		return Trip{}, err
	}
	return current, nil
}

func (s *Service) GetTrip(ctx context.Context, tripID string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, driver_id, vehicle_id, status, started_at,
		       COALESCE(ended_at, 'epoch'::timestamptz),
		       start_lat, start_lng, COALESCE(end_lat,0), COALESCE(end_lng,0),
		       distance_km, max_speed_kmh, COALESCE(avg_speed_kmh,0)
		FROM trips WHERE id=$1
	`, tripID)
	var t Trip
	err := row.Scan(&t.ID, &t.DriverID, &t.VehicleID, &t.Status, &t.StartedAt, &t.EndedAt,
		&t.StartLat, &t.StartLng, &t.EndLat, &t.EndLng,
		&t.DistanceKm, &t.MaxSpeedKmh, &t.AvgSpeedKmh)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrTripNotFound
	}
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

// ActiveTrip returns the single open trip for a driver/vehicle pair.
func (s *Service) ActiveTrip(ctx context.Context, driverID, vehicleID string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, driver_id, vehicle_id, status, started_at, start_lat, start_lng,
		       distance_km, max_speed_kmh
		FROM trips
		WHERE driver_id=$1 AND vehicle_id=$2 AND status=$3
	`, driverID, vehicleID, StatusActive)
	var t Trip
	err := row.Scan(&t.ID, &t.DriverID, &t.VehicleID, &t.Status, &t.StartedAt,
		&t.StartLat, &t.StartLng, &t.DistanceKm, &t.MaxSpeedKmh)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrTripNotFound
	}
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

// Samples returns the recorded fixes of a trip in capture order for playback
// and reporting.
func (s *Service) Samples(ctx context.Context, tripID string) ([]Sample, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, lat, lng, speed_kmh, accuracy_m, recorded_at, created_at
		FROM location_samples WHERE trip_id=$1
		ORDER BY recorded_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var p Sample
		if err := rows.Scan(&p.ID, &p.TripID, &p.Lat, &p.Lng, &p.SpeedKmh, &p.AccuracyM, &p.RecordedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	return samples, nil
}
