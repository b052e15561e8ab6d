package detector

import (
	"context"
	"sync"
	"time"

	"backend-fleetwatch/internal/alarm"
	"backend-fleetwatch/internal/roads"
	"backend-fleetwatch/internal/trip"
)

// TriggerThresholdKmh is the fixed global pre-filter. Samples at or below it
// never reach the rate-limited classifier: it keeps the expensive lookup off
// the hot path for lawful driving, it is not a statement that this speed is
// always legal. The contextual road limit is applied separately.
const TriggerThresholdKmh = 70.0

// DefaultCooldown bounds alarms to one per trip per window, no matter how
// long the speeding episode lasts. Demo harnesses shorten it.
const DefaultCooldown = 60 * time.Second

type Outcome string

const (
	OutcomeNone       Outcome = "none"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeViolation  Outcome = "violation"
)

type Result struct {
	Outcome Outcome         `json:"outcome"`
	Road    *roads.RoadInfo `json:"road,omitempty"`
	Alarm   *alarm.Alarm    `json:"alarm,omitempty"`
}

type RoadClassifier interface {
	Classify(ctx context.Context, lat, lng float64) roads.RoadInfo
}

type AlarmCreator interface {
	Create(ctx context.Context, v alarm.SpeedViolation) (alarm.Alarm, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, a alarm.Alarm, driverID string, v alarm.SpeedViolation)
}

// Detector evaluates live samples against context-sensitive limits. Per-trip
// state (last alarm time, alerting indicator) lives in process memory; it
// drives the cooldown and the client's continuous alert indicator and is
// deliberately not persisted.
type Detector struct {
	classifier RoadClassifier
	alarms     AlarmCreator
	fanout     Dispatcher
	cooldown   time.Duration
	now        func() time.Time

	mu        sync.Mutex
	lastAlarm map[string]time.Time
	alerting  map[string]bool
}

func New(classifier RoadClassifier, alarms AlarmCreator, fanout Dispatcher, cooldown time.Duration) *Detector {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Detector{
		classifier: classifier,
		alarms:     alarms,
		fanout:     fanout,
		cooldown:   cooldown,
		now:        time.Now,
		lastAlarm:  map[string]time.Time{},
		alerting:   map[string]bool{},
	}
}

// Evaluate inspects one accepted sample. The only error it can return is an
// alarm persistence failure; classification problems degrade inside the
// classifier and notification failures are swallowed by the fan-out.
func (d *Detector) Evaluate(ctx context.Context, totals trip.Totals, sample trip.Sample) (Result, error) {
	if sample.SpeedKmh == nil {
		return Result{Outcome: OutcomeNone}, nil
	}
	speed := *sample.SpeedKmh

	if speed <= TriggerThresholdKmh {
		d.setAlerting(totals.TripID, false)
		return Result{Outcome: OutcomeNone}, nil
	}

	if d.inCooldown(totals.TripID) {
		return Result{Outcome: OutcomeSuppressed}, nil
	}

	road := d.classifier.Classify(ctx, sample.Lat, sample.Lng)
	if speed <= road.SpeedLimitKmh {
		d.setAlerting(totals.TripID, false)
		return Result{Outcome: OutcomeNone, Road: &road}, nil
	}

	d.markAlarmed(totals.TripID)

	violation := alarm.SpeedViolation{
		VehicleID:    totals.VehicleID,
		SpeedKmh:     speed,
		LimitKmh:     road.SpeedLimitKmh,
		RoadName:     road.Name,
		RoadCategory: road.Category,
		Lat:          &sample.Lat,
		Lng:          &sample.Lng,
	}
	created, err := d.alarms.Create(ctx, violation)
	if err != nil {
		return Result{}, err
	}
	if d.fanout != nil {
		d.fanout.Dispatch(ctx, created, totals.DriverID, violation)
	}
	return Result{Outcome: OutcomeViolation, Road: &road, Alarm: &created}, nil
}

// Alerting reports whether the trip's most recent evaluated sample was above
// the contextual limit, for the continuous local indicator.
func (d *Detector) Alerting(tripID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alerting[tripID]
}

// Forget drops the per-trip state once a trip closes.
func (d *Detector) Forget(tripID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lastAlarm, tripID)
	delete(d.alerting, tripID)
}

func (d *Detector) inCooldown(tripID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lastAlarm[tripID]
	return ok && d.now().Sub(last) < d.cooldown
}

func (d *Detector) markAlarmed(tripID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAlarm[tripID] = d.now()
	d.alerting[tripID] = true
}

func (d *Detector) setAlerting(tripID string, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		d.alerting[tripID] = true
		return
	}
	delete(d.alerting, tripID)
}
