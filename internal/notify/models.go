package notify

import "context"

// Settings is the point-in-time snapshot of channel toggles read per alarm.
// It is intentionally not cached across alarms; an operator flipping a toggle
// takes effect on the next violation.
type Settings struct {
	MessagingEnabled bool `json:"messaging_enabled"`
	PushEnabled      bool `json:"push_enabled"`
}

// AlertPayload is the structured alert handed to every channel.
type AlertPayload struct {
	Message    string   `json:"message"`
	DriverName string   `json:"driver_name"`
	VehicleID  string   `json:"vehicle_id"`
	SpeedKmh   float64  `json:"speed_kmh"`
	LimitKmh   float64  `json:"limit_kmh"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

type Messenger interface {
	SendAlert(ctx context.Context, payload AlertPayload) error
}

type Pusher interface {
	PushAlert(ctx context.Context, driverID string, payload AlertPayload) error
}

// Mailer is the email collaborator. It is not part of the alarm path; only
// the administrator diagnostic action uses it.
type Mailer interface {
	SendDiagnostic(ctx context.Context, to, subject, body string) error
}
