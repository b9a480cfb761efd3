package water

import (
	"time"
)

// Quality is the coarse status tag attached to a reading by the data source.
// It is passed through as received and never recomputed locally.
type Quality string

const (
	QualityUnknown   Quality = ""
	QualityExcellent Quality = "EXCELLENT"
	QualityGood      Quality = "GOOD"
	QualityWarning   Quality = "WARNING"
	QualityBad       Quality = "BAD"
)

// Tone groups quality tags into the banner colours used by the dashboard.
type Tone string

const (
	ToneExcellent Tone = "excellent"
	ToneGood      Tone = "good"
	ToneWarning   Tone = "warning"
	ToneCritical  Tone = "critical"
)

// Tone maps the tag to its banner tone. Unrecognised tags are critical.
func (q Quality) Tone() Tone {
	switch q {
	case QualityExcellent:
		return ToneExcellent
	case QualityGood:
		return ToneGood
	case QualityWarning:
		return ToneWarning
	default:
		return ToneCritical
	}
}

// Badge is the two-state label shown next to each status log entry.
type Badge string

const (
	BadgeGood Badge = "good"
	BadgeBad  Badge = "bad"
)

// Badge returns BadgeGood only for GOOD; every other tag is shown as bad.
func (q Quality) Badge() Badge {
	if q == QualityGood {
		return BadgeGood
	}
	return BadgeBad
}

// Reading is one sensor sample for one monitored location.
// Readings are immutable once decoded.
type Reading struct {
	Location     string    `json:"location"`
	Timestamp    time.Time `json:"timestamp"`
	PH           float64   `json:"pH"`
	TemperatureC float64   `json:"temperatureC"`
	ORPMillivolt float64   `json:"orpMv"`
	Quality      Quality   `json:"quality"`
}
