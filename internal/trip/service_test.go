package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var errTrip = errors.New("trip error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestStartTripCreatesInitialSample(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id FROM trips`).
		WithArgs("driver-1", "vehicle-1", StatusActive).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(pgxmock.AnyArg(), "driver-1", "vehicle-1", StatusActive, pgxmock.AnyArg(), -6.2, 106.8).
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(time.Now()))

	mock.ExpectExec(`INSERT INTO location_samples`).
		WithArgs(pgxmock.AnyArg(), -6.2, 106.8, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := svc.StartTrip(context.Background(), Trip{DriverID: "driver-1", VehicleID: "vehicle-1", StartLat: -6.2, StartLng: 106.8})
	if err != nil {
		t.Fatalf("start trip: %v", err)
	}
	if created.Status != StatusActive || created.DistanceKm != 0 || created.MaxSpeedKmh != 0 {
		t.Fatalf("unexpected new trip: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartTripConflict(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id FROM trips`).
		WithArgs("driver-1", "vehicle-1", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("trip-open"))

	_, err := svc.StartTrip(context.Background(), Trip{DriverID: "driver-1", VehicleID: "vehicle-1"})
	if !errors.Is(err, ErrActiveTripExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIngestSampleAccumulates(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	speed := 52.0
	mock.ExpectQuery(`SELECT driver_id, vehicle_id FROM trips`).
		WithArgs("trip-1", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"driver_id", "vehicle_id"}).AddRow("driver-1", "vehicle-1"))

	mock.ExpectQuery(`SELECT lat, lng FROM location_samples`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lng"}).AddRow(-6.2, 106.8))

	mock.ExpectQuery(`INSERT INTO location_samples`).
		WithArgs("trip-1", -6.1, 106.9, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	mock.ExpectQuery(`UPDATE trips`).
		WithArgs("trip-1", pgxmock.AnyArg(), 52.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "max_speed_kmh"}).AddRow(15.7, 52.0))

	totals, err := svc.IngestSample(context.Background(), "trip-1", Sample{Lat: -6.1, Lng: 106.9, SpeedKmh: &speed})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if totals.VehicleID != "vehicle-1" || totals.DistanceKm != 15.7 || totals.MaxSpeedKmh != 52.0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIngestSampleFirstPointNoDistance(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT driver_id, vehicle_id FROM trips`).
		WithArgs("trip-1", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"driver_id", "vehicle_id"}).AddRow("driver-1", "vehicle-1"))

	mock.ExpectQuery(`SELECT lat, lng FROM location_samples`).
		WithArgs("trip-1").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`INSERT INTO location_samples`).
		WithArgs("trip-1", -6.2, 106.8, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	// no previous position: delta must be exactly zero, speed defaults to 0
	mock.ExpectQuery(`UPDATE trips`).
		WithArgs("trip-1", 0.0, 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "max_speed_kmh"}).AddRow(0.0, 0.0))

	if _, err := svc.IngestSample(context.Background(), "trip-1", Sample{Lat: -6.2, Lng: 106.8}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIngestSampleTripNotFound(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT driver_id, vehicle_id FROM trips`).
		WithArgs("missing", StatusActive).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.IngestSample(context.Background(), "missing", Sample{Lat: 1, Lng: 2})
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func tripRow(status string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "driver_id", "vehicle_id", "status", "started_at", "ended_at",
		"start_lat", "start_lng", "end_lat", "end_lng",
		"distance_km", "max_speed_kmh", "avg_speed_kmh",
	}).AddRow("trip-1", "driver-1", "vehicle-1", status, time.Now().Add(-time.Hour), time.Time{},
		-6.2, 106.8, 0.0, 0.0, 12.5, 80.0, 0.0)
}

func TestEndTripStoresAggregatesVerbatim(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`COALESCE\(ended_at`).
		WithArgs("trip-1").
		WillReturnRows(tripRow(StatusActive))

	mock.ExpectExec(`UPDATE trips`).
		WithArgs("trip-1", StatusCompleted, pgxmock.AnyArg(), -6.1, 106.9, 14.2, 92.0, 38.5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	closed, err := svc.EndTrip(context.Background(), "trip-1", CloseRequest{
		EndLat: -6.1, EndLng: 106.9, DistanceKm: 14.2, MaxSpeedKmh: 92.0, AvgSpeedKmh: 38.5,
	})
	if err != nil {
		t.Fatalf("end trip: %v", err)
	}
	if closed.Status != StatusCompleted || closed.DistanceKm != 14.2 || closed.AvgSpeedKmh != 38.5 {
		t.Fatalf("unexpected closed trip: %+v", closed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEndTripIdempotentOnCompleted(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	// already completed: no UPDATE issued, call still succeeds
	mock.ExpectQuery(`COALESCE\(ended_at`).
		WithArgs("trip-1").
		WillReturnRows(tripRow(StatusCompleted))

	closed, err := svc.EndTrip(context.Background(), "trip-1", CloseRequest{DistanceKm: 99})
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if closed.Status != StatusCompleted {
		t.Fatalf("expected completed status")
	}
	if closed.DistanceKm != 12.5 {
		t.Fatalf("no-op close must not overwrite aggregates, got %v", closed.DistanceKm)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEndTripNotFound(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`COALESCE\(ended_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.EndTrip(context.Background(), "missing", CloseRequest{})
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActiveTrip(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`WHERE driver_id=\$1 AND vehicle_id=\$2`).
		WithArgs("driver-1", "vehicle-1", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "driver_id", "vehicle_id", "status", "started_at", "start_lat", "start_lng",
			"distance_km", "max_speed_kmh",
		}).AddRow("trip-1", "driver-1", "vehicle-1", StatusActive, time.Now(), -6.2, 106.8, 3.0, 45.0))

	active, err := svc.ActiveTrip(context.Background(), "driver-1", "vehicle-1")
	if err != nil {
		t.Fatalf("active trip: %v", err)
	}
	if active.ID != "trip-1" {
		t.Fatalf("unexpected trip: %+v", active)
	}

	mock.ExpectQuery(`WHERE driver_id=\$1 AND vehicle_id=\$2`).
		WithArgs("driver-1", "vehicle-2", StatusActive).
		WillReturnError(pgx.ErrNoRows)

	if _, err := svc.ActiveTrip(context.Background(), "driver-1", "vehicle-2"); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSamplesQueryError(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id, trip_id, lat, lng`).
		WithArgs("trip-1").
		WillReturnError(errTrip)

	if _, err := svc.Samples(context.Background(), "trip-1"); err == nil {
		t.Fatalf("expected error")
	}
}
