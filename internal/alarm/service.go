package alarm

import (
	"context"
	"fmt"

	"backend-fleetwatch/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// SeverityFor maps excess speed to a tier. The mapping is fixed at creation
// time; alarms are never re-scored.
func SeverityFor(excessKmh float64) string {
	switch {
	case excessKmh >= 30:
		return SeverityCritical
	case excessKmh >= 20:
		return SeverityHigh
	case excessKmh >= 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Create persists a speed alarm for a confirmed violation and returns the
// stored record. Persistence failures propagate to the caller.
func (s *Service) Create(ctx context.Context, v SpeedViolation) (Alarm, error) {
	a := Alarm{
		ID:        uuid.NewString(),
		VehicleID: v.VehicleID,
		Type:      TypeSpeed,
		Severity:  SeverityFor(v.ExcessKmh()),
		Message: fmt.Sprintf("Speeding at %.0f km/h on %s (%s, limit %.0f km/h)",
			v.SpeedKmh, v.RoadName, v.RoadCategory, v.LimitKmh),
		Lat: v.Lat,
		Lng: v.Lng,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO alarms (id, vehicle_id, type, severity, message, lat, lng, acknowledged)
		VALUES ($1,$2,$3,$4,$5,$6,$7,false)
		RETURNING created_at
	`, a.ID, a.VehicleID, a.Type, a.Severity, a.Message, a.Lat, a.Lng)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// Recent lists alarms newest-first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Alarm, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, vehicle_id, type, severity, message, lat, lng, acknowledged, created_at
		FROM alarms
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alarms []Alarm
	for rows.Next() {
		var a Alarm
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.Type, &a.Severity, &a.Message, &a.Lat, &a.Lng, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, err
		}
		alarms = append(alarms, a)
	}
	return alarms, nil
}
