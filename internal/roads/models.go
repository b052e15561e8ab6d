package roads

const (
	CategoryHighway = "highway"
	CategoryUrban   = "urban"
	CategoryUnknown = "unknown"

	HighwayLimitKmh = 70.0
	UrbanLimitKmh   = 40.0
)

// RoadInfo classifies one coordinate at a point in time.
type RoadInfo struct {
	Category      string  `json:"category"`
	SpeedLimitKmh float64 `json:"speed_limit_kmh"`
	Name          string  `json:"name"`
	SourceTag     string  `json:"source_tag,omitempty"`
}

// Fallback is returned whenever the reverse-geocoding lookup fails. It leans
// toward the stricter urban limit so an outage never relaxes enforcement.
func Fallback() RoadInfo {
	return RoadInfo{
		Category:      CategoryUrban,
		SpeedLimitKmh: UrbanLimitKmh,
		Name:          "unknown (offline)",
	}
}

// LimitFor maps a road category to its fixed speed limit.
func LimitFor(category string) float64 {
	if category == CategoryHighway {
		return HighwayLimitKmh
	}
	return UrbanLimitKmh
}
