package notify

import (
	"context"
	"log"
	"sync"

	"backend-fleetwatch/internal/alarm"
	"backend-fleetwatch/internal/db"
)

// Fanout dispatches a created alarm to the enabled channels. Channels run
// independently: one failing channel is logged and never blocks, cancels, or
// fails the others, and Dispatch itself never reports failure back to alarm
// creation.
type Fanout struct {
	db        db.Querier
	messenger Messenger
	pusher    Pusher
}

func NewFanout(db db.Querier, messenger Messenger, pusher Pusher) *Fanout {
	return &Fanout{db: db, messenger: messenger, pusher: pusher}
}

// Dispatch sends the alarm to every enabled channel and waits for all of
// them, for logging purposes only.
func (f *Fanout) Dispatch(ctx context.Context, a alarm.Alarm, driverID string, v alarm.SpeedViolation) {
	settings := f.settingsSnapshot(ctx)

	payload := AlertPayload{
		Message:    a.Message,
		DriverName: f.driverName(ctx, driverID),
		VehicleID:  a.VehicleID,
		SpeedKmh:   v.SpeedKmh,
		LimitKmh:   v.LimitKmh,
		Lat:        a.Lat,
		Lng:        a.Lng,
	}

	var wg sync.WaitGroup
	if settings.MessagingEnabled && f.messenger != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.messenger.SendAlert(ctx, payload); err != nil {
				log.Printf("messaging channel failed for alarm %s: %v", a.ID, err)
			}
		}()
	}
	if settings.PushEnabled && f.pusher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.pusher.PushAlert(ctx, driverID, payload); err != nil {
				log.Printf("push channel failed for alarm %s: %v", a.ID, err)
			}
		}()
	}
	wg.Wait()
}

// settingsSnapshot reads the single settings row. A missing or unreadable
// row turns every channel off rather than guessing.
func (f *Fanout) settingsSnapshot(ctx context.Context) Settings {
	var s Settings
	err := f.db.QueryRow(ctx, `
		SELECT messaging_enabled, push_enabled
		FROM notification_settings
		LIMIT 1
	`).Scan(&s.MessagingEnabled, &s.PushEnabled)
	if err != nil {
		log.Printf("notification settings unavailable, channels off: %v", err)
		return Settings{}
	}
	return s
}

func (f *Fanout) driverName(ctx context.Context, driverID string) string {
	var name string
	err := f.db.QueryRow(ctx, `
		SELECT display_name FROM drivers WHERE id=$1
	`, driverID).Scan(&name)
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}
