package notify

import (
	"context"

	"backend-fleetwatch/internal/db"

	"github.com/google/uuid"
)

// StorePusher records push notifications durably; the mobile client picks
// them up on its next sync.
type StorePusher struct {
	db db.Querier
}

func NewStorePusher(db db.Querier) *StorePusher {
	return &StorePusher{db: db}
}

func (p *StorePusher) PushAlert(ctx context.Context, driverID string, payload AlertPayload) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO push_notifications (id, driver_id, vehicle_id, message, speed_kmh, limit_kmh)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.NewString(), driverID, payload.VehicleID, payload.Message, payload.SpeedKmh, payload.LimitKmh)
	return err
}
