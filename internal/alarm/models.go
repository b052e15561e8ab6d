package alarm

import "time"

const TypeSpeed = "speed"

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

type Alarm struct {
	ID           string    `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// SpeedViolation describes one confirmed violation handed over by the
// detector.
type SpeedViolation struct {
	VehicleID    string
	SpeedKmh     float64
	LimitKmh     float64
	RoadName     string
	RoadCategory string
	Lat          *float64
	Lng          *float64
}

// ExcessKmh is the amount by which the observed speed exceeds the limit.
func (v SpeedViolation) ExcessKmh() float64 {
	return v.SpeedKmh - v.LimitKmh
}
