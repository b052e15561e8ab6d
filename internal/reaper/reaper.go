package reaper

import (
	"context"
	"log"
	"time"

	"backend-fleetwatch/internal/db"
	"backend-fleetwatch/internal/trip"
)

// DefaultThreshold is how long a trip may sit without a sample before it is
// considered abandoned.
const DefaultThreshold = 12 * time.Hour

// DefaultInterval is how often Run sweeps when no interval is configured.
const DefaultInterval = 30 * time.Minute

// Reaper force-closes active trips whose clients never signaled completion.
// No lock is taken across the sweep: the active-status filter on the update
// makes concurrent or repeated runs close each trip at most once.
type Reaper struct {
	db  db.Querier
	now func() time.Time
}

func New(db db.Querier) *Reaper {
	return &Reaper{db: db, now: time.Now}
}

// Reap closes every active trip whose last activity (latest sample, or trip
// start when it has none) is older than the threshold, and returns how many
// it closed. Aggregates keep whatever partial values were last recorded; no
// end coordinate is invented.
func (r *Reaper) Reap(ctx context.Context, threshold time.Duration) (int, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	rows, err := r.db.Query(ctx, `
		SELECT t.id, COALESCE(MAX(s.recorded_at), t.started_at) AS last_activity
		FROM trips t
		LEFT JOIN location_samples s ON s.trip_id = t.id
		WHERE t.status=$1
		GROUP BY t.id, t.started_at
	`, trip.StatusActive)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type candidate struct {
		id           string
		lastActivity time.Time
	}
	var stale []candidate
	cutoff := r.now().Add(-threshold)
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.lastActivity); err != nil {
			return 0, err
		}
		if c.lastActivity.Before(cutoff) {
			stale = append(stale, c)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	closed := 0
	for _, c := range stale {
		tag, err := r.db.Exec(ctx, `
			UPDATE trips SET status=$2, ended_at=$3
			WHERE id=$1 AND status=$4
		`, c.id, trip.StatusCompleted, r.now(), trip.StatusActive)
		if err != nil {
			return closed, err
		}
		if tag.RowsAffected() > 0 {
			closed++
			log.Printf("reaped stale trip %s (last activity %s)", c.id, c.lastActivity.Format(time.RFC3339))
		}
	}
	return closed, nil
}

// Run sweeps on a fixed interval until the context is canceled. A sweep cut
// short mid-way leaves already-closed trips closed; the next tick picks up
// the rest.
func (r *Reaper) Run(ctx context.Context, interval, threshold time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := r.Reap(ctx, threshold)
			if err != nil {
				log.Printf("reaper sweep failed: %v", err)
				continue
			}
			if closed > 0 {
				log.Printf("reaper closed %d stale trips", closed)
			}
		}
	}
}
