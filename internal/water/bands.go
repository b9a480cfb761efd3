package water

import "math"

// Band is an inclusive safe range for one measured parameter.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether min <= v <= max. NaN is never in range.
func (b Band) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return v >= b.Min && v <= b.Max
}

// Safe bands used for per-parameter colouring.
var (
	PHBand          = Band{Min: 6.5, Max: 8.5}
	TemperatureBand = Band{Min: 20, Max: 30}
	ORPBand         = Band{Min: 400, Max: 500}
)

// RangeStatus holds the in/out-of-range flag for each parameter of a reading.
// It is independent of the reading's Quality tag.
type RangeStatus struct {
	PH          bool `json:"pHInRange"`
	Temperature bool `json:"temperatureInRange"`
	ORP         bool `json:"orpInRange"`
}

// AllInRange is true when every parameter sits inside its band.
func (s RangeStatus) AllInRange() bool {
	return s.PH && s.Temperature && s.ORP
}

// Classify compares a reading's parameters against the safe bands.
func Classify(r Reading) RangeStatus {
	return RangeStatus{
		PH:          PHBand.Contains(r.PH),
		Temperature: TemperatureBand.Contains(r.TemperatureC),
		ORP:         ORPBand.Contains(r.ORPMillivolt),
	}
}
