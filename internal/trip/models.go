package trip

import "time"

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Trip struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driver_id"`
	VehicleID string    `json:"vehicle_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	StartLat  float64   `json:"start_lat"`
	StartLng  float64   `json:"start_lng"`
	EndLat    float64   `json:"end_lat,omitempty"`
	EndLng    float64   `json:"end_lng,omitempty"`

	DistanceKm  float64 `json:"distance_km"`
	MaxSpeedKmh float64 `json:"max_speed_kmh"`
	// AvgSpeedKmh is zero while the trip is active and fixed once at close.
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

type Sample struct {
	ID         int64     `json:"id"`
	TripID     string    `json:"trip_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Totals are the running aggregates returned after each accepted sample, for
// the driver's live display and for violation evaluation downstream.
type Totals struct {
	TripID      string  `json:"trip_id"`
	DriverID    string  `json:"driver_id"`
	VehicleID   string  `json:"vehicle_id"`
	DistanceKm  float64 `json:"distance_km"`
	MaxSpeedKmh float64 `json:"max_speed_kmh"`
}

// CloseRequest carries the caller-computed aggregates stored verbatim at trip
// close. The server does not recompute them from the persisted samples; the
// write path stays cheap and the client's live display and the durable record
// agree by construction.
type CloseRequest struct {
	EndLat      float64 `json:"end_lat"`
	EndLng      float64 `json:"end_lng"`
	DistanceKm  float64 `json:"distance_km"`
	MaxSpeedKmh float64 `json:"max_speed_kmh"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}
