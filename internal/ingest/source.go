package ingest

import (
	"context"
	"time"
)

// Position is one fix produced by a positioning source.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Source abstracts the positioning subsystem: a lazy, non-restartable
// sequence of fixes delivered whenever the environment produces them, not on
// a fixed poll interval. Canceling the context stops the sequence; closing
// the channel ends it. Pipelines are tested by feeding a finite scripted
// sequence through this interface.
type Source interface {
	Positions(ctx context.Context) (<-chan Position, error)
}

// ChannelSource adapts a pre-built channel, used by simulators and tests.
type ChannelSource struct {
	C <-chan Position
}

func (s ChannelSource) Positions(_ context.Context) (<-chan Position, error) {
	return s.C, nil
}

// Script returns a source that replays fixed positions and then ends.
func Script(positions ...Position) Source {
	ch := make(chan Position, len(positions))
	for _, p := range positions {
		ch <- p
	}
	close(ch)
	return ChannelSource{C: ch}
}
