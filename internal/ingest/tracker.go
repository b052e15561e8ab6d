package ingest

import (
	"context"
	"errors"
	"log"

	"backend-fleetwatch/internal/detector"
	"backend-fleetwatch/internal/shared/geo"
	"backend-fleetwatch/internal/stream"
	"backend-fleetwatch/internal/trip"
)

type Ledger interface {
	IngestSample(ctx context.Context, tripID string, input trip.Sample) (trip.Totals, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, totals trip.Totals, sample trip.Sample) (detector.Result, error)
	Alerting(tripID string) bool
}

type Publisher interface {
	Publish(update stream.LiveUpdate)
}

// Update is what a caller gets back after one processed fix.
type Update struct {
	Totals trip.Totals     `json:"totals"`
	Result detector.Result `json:"result"`
}

// Tracker runs the per-sample pipeline: persist the fix, evaluate it for a
// violation, publish the live update. Samples of one trip are processed
// strictly in order; a slow write delays the next fix rather than dropping
// it.
type Tracker struct {
	ledger    Ledger
	evaluator Evaluator
	publisher Publisher
}

func NewTracker(ledger Ledger, evaluator Evaluator, publisher Publisher) *Tracker {
	return &Tracker{ledger: ledger, evaluator: evaluator, publisher: publisher}
}

// HandleSample processes one fix for a trip. Persistence errors from the
// ledger or the alarm store propagate to the caller.
func (t *Tracker) HandleSample(ctx context.Context, tripID string, pos Position) (Update, error) {
	sample := trip.Sample{
		TripID:     tripID,
		Lat:        pos.Lat,
		Lng:        pos.Lng,
		SpeedKmh:   pos.SpeedKmh,
		AccuracyM:  pos.AccuracyM,
		RecordedAt: pos.RecordedAt,
	}

	totals, err := t.ledger.IngestSample(ctx, tripID, sample)
	if err != nil {
		return Update{}, err
	}

	result, err := t.evaluator.Evaluate(ctx, totals, sample)
	if err != nil {
		return Update{}, err
	}

	t.publish(totals, pos)
	return Update{Totals: totals, Result: result}, nil
}

// Track consumes a position source for one trip until the source ends or the
// context is canceled. A failed sample write is logged and the locally
// computed running totals still advance, so downstream consumers keep a
// consistent live view even when the durable record lags. A vanished trip
// ends the watch: the caller should treat it as a lost session.
func (t *Tracker) Track(ctx context.Context, tripID, driverID, vehicleID string, src Source) error {
	positions, err := src.Positions(ctx)
	if err != nil {
		return err
	}

	local := trip.Totals{TripID: tripID, DriverID: driverID, VehicleID: vehicleID}
	havePrev := false
	var prevLat, prevLng float64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pos, ok := <-positions:
			if !ok {
				return nil
			}

			sample := trip.Sample{
				TripID:     tripID,
				Lat:        pos.Lat,
				Lng:        pos.Lng,
				SpeedKmh:   pos.SpeedKmh,
				AccuracyM:  pos.AccuracyM,
				RecordedAt: pos.RecordedAt,
			}

			if havePrev {
				local.DistanceKm += geo.HaversineKm(prevLat, prevLng, pos.Lat, pos.Lng)
			}
			if speed := pos.SpeedKmh; speed != nil && *speed > local.MaxSpeedKmh {
				local.MaxSpeedKmh = *speed
			}
			prevLat, prevLng = pos.Lat, pos.Lng
			havePrev = true

			totals, err := t.ledger.IngestSample(ctx, tripID, sample)
			switch {
			case errors.Is(err, trip.ErrTripNotFound):
				return err
			case err != nil:
				log.Printf("sample write failed for trip %s, advancing local totals: %v", tripID, err)
				totals = local
			default:
				local = totals
			}

			if _, err := t.evaluator.Evaluate(ctx, totals, sample); err != nil {
				log.Printf("violation evaluation failed for trip %s: %v", tripID, err)
			}

			t.publish(totals, pos)
		}
	}
}

func (t *Tracker) publish(totals trip.Totals, pos Position) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(stream.LiveUpdate{
		TripID:      totals.TripID,
		VehicleID:   totals.VehicleID,
		Lat:         pos.Lat,
		Lng:         pos.Lng,
		SpeedKmh:    pos.SpeedKmh,
		DistanceKm:  totals.DistanceKm,
		MaxSpeedKmh: totals.MaxSpeedKmh,
		Alerting:    t.evaluator.Alerting(totals.TripID),
	})
}
