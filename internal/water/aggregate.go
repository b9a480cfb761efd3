package water

import (
	"sort"
	"time"
)

// AggregateOptions controls the non-pure inputs of AggregateReadings.
type AggregateOptions struct {
	// TZ is the zone used to decide calendar dates. Nil means time.Local.
	TZ *time.Location

	// PreserveSourceOrder keeps each location's history in the order the
	// source returned it instead of sorting newest-first by timestamp.
	PreserveSourceOrder bool
}

func (o AggregateOptions) zone() *time.Location {
	if o.TZ == nil {
		return time.Local
	}
	return o.TZ
}

// Aggregate is the grouped view of one dataset.
type Aggregate struct {
	// Locations lists location names in order of first appearance.
	Locations []string `json:"locations"`

	// ByLocation holds each location's history, newest first.
	ByLocation map[string][]Reading `json:"byLocation"`

	// Today holds readings whose local calendar date equals now's, in input order.
	Today []Reading `json:"today"`
}

// Summary is the latest reading of a location with its band classification.
type Summary struct {
	Reading
	InRange RangeStatus `json:"inRange"`
	Tone    Tone        `json:"tone"`
}

// AggregateReadings groups readings by exact location name and filters the
// readings taken on now's calendar date.
func AggregateReadings(readings []Reading, now time.Time, opts AggregateOptions) Aggregate {
	agg := Aggregate{
		Locations:  make([]string, 0),
		ByLocation: make(map[string][]Reading),
		Today:      make([]Reading, 0),
	}

	tz := opts.zone()
	ny, nm, nd := now.In(tz).Date()

	for _, r := range readings {
		if _, ok := agg.ByLocation[r.Location]; !ok {
			agg.Locations = append(agg.Locations, r.Location)
		}
		agg.ByLocation[r.Location] = append(agg.ByLocation[r.Location], r)

		y, m, d := r.Timestamp.In(tz).Date()
		if y == ny && m == nm && d == nd {
			agg.Today = append(agg.Today, r)
		}
	}

	if !opts.PreserveSourceOrder {
		for _, history := range agg.ByLocation {
			sort.SliceStable(history, func(i, j int) bool {
				return history[i].Timestamp.After(history[j].Timestamp)
			})
		}
	}

	return agg
}

// Latest returns the newest reading of a location.
func (a Aggregate) Latest(location string) (Reading, bool) {
	history := a.ByLocation[location]
	if len(history) == 0 {
		return Reading{}, false
	}
	return history[0], true
}

// Summaries returns one Summary per location in first-appearance order.
func (a Aggregate) Summaries() []Summary {
	out := make([]Summary, 0, len(a.Locations))
	for _, name := range a.Locations {
		latest, ok := a.Latest(name)
		if !ok {
			continue
		}
		out = append(out, Summarize(latest))
	}
	return out
}

// Summarize attaches the band classification and tone to a reading.
func Summarize(r Reading) Summary {
	return Summary{
		Reading: r,
		InRange: Classify(r),
		Tone:    r.Quality.Tone(),
	}
}
