package roads

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a classification is reused for the
	// same rounded coordinate.
	DefaultCacheTTL = 30 * time.Second

	// defaultMinInterval is the minimum spacing between consecutive outbound
	// reverse-geocoding calls, shared across all coordinates and trips.
	defaultMinInterval = time.Second
)

// highwayTags is the allow-list of OSM highway types classified as highway.
var highwayTags = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
	"trunk":         true,
	"trunk_link":    true,
}

// Classifier resolves a coordinate to a road category and applicable speed
// limit. The cache and the call spacing are owned by the classifier instance,
// not package globals, so tests compose isolated instances and a scaled
// deployment can inject a Redis-backed cache. The spacing reservation itself
// is still per process; across instances it relaxes to 1/s per instance.
type Classifier struct {
	geocoder Geocoder
	cache    Cache

	minInterval time.Duration
	mu          sync.Mutex
	nextCall    time.Time
}

func NewClassifier(geocoder Geocoder, cache Cache) *Classifier {
	return &Classifier{
		geocoder:    geocoder,
		cache:       cache,
		minInterval: defaultMinInterval,
	}
}

// cacheKey rounds to 4 decimal places, an ~11 m grid.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

// Classify never fails: any lookup problem degrades to the fail-safe urban
// fallback instead of surfacing an error, so the violation pipeline does not
// depend on geocoder uptime.
func (c *Classifier) Classify(ctx context.Context, lat, lng float64) RoadInfo {
	key := cacheKey(lat, lng)
	if info, ok := c.cache.Get(ctx, key); ok {
		return info
	}

	if err := c.waitTurn(ctx); err != nil {
		return Fallback()
	}

	place, err := c.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		log.Printf("road classify fallback for %s: %v", key, err)
		return Fallback()
	}

	info := classifyPlace(place)
	c.cache.Set(ctx, key, info)
	return info
}

// waitTurn reserves the next outbound slot and sleeps until it. Reserving
// under the lock keeps concurrent callers spaced even when several wake at
// once.
func (c *Classifier) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.nextCall
	if slot.Before(now) {
		slot = now
	}
	c.nextCall = slot.Add(c.minInterval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func classifyPlace(place Place) RoadInfo {
	category := CategoryUnknown
	if place.Type != "" {
		category = CategoryUrban
		if place.Class == "highway" && highwayTags[place.Type] {
			category = CategoryHighway
		}
	}

	name := place.Name
	if name == "" {
		name = "unnamed road"
	}

	return RoadInfo{
		Category:      category,
		SpeedLimitKmh: LimitFor(category),
		Name:          name,
		SourceTag:     place.Type,
	}
}
