package water

import (
	"math"
	"testing"
)

func TestBandsClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		band Band
		v    float64
		want bool
	}{
		{"pH neutral", PHBand, 7.0, true},
		{"pH too acidic", PHBand, 6.4, false},
		{"pH lower bound", PHBand, 6.5, true},
		{"pH upper bound", PHBand, 8.5, true},
		{"pH too basic", PHBand, 8.51, false},
		{"temperature cold", TemperatureBand, 19.9, false},
		{"temperature lower bound", TemperatureBand, 20, true},
		{"temperature upper bound", TemperatureBand, 30, true},
		{"ORP upper bound", ORPBand, 500, true},
		{"ORP low", ORPBand, 399.9, false},
		{"NaN", PHBand, math.NaN(), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.band.Contains(tc.v); got != tc.want {
				t.Fatalf("%+v.Contains(%v)=%v want %v", tc.band, tc.v, got, tc.want)
			}
		})
	}
}

// TestClassifyIgnoresQualityTag keeps the band flags and the source tag apart:
// a BAD reading can be fully in range and a GOOD one out of range.
func TestClassifyIgnoresQualityTag(t *testing.T) {
	t.Parallel()

	bad := Reading{PH: 7, TemperatureC: 25, ORPMillivolt: 450, Quality: QualityBad}
	if s := Classify(bad); !s.AllInRange() {
		t.Fatalf("Classify(%+v)=%+v want all in range", bad, s)
	}

	good := Reading{PH: 6.4, TemperatureC: 19.9, ORPMillivolt: 501, Quality: QualityGood}
	s := Classify(good)
	if s.PH || s.Temperature || s.ORP {
		t.Fatalf("Classify(%+v)=%+v want all out of range", good, s)
	}
	if good.Quality.Badge() != BadgeGood {
		t.Fatalf("badge should follow the tag")
	}
}

func TestQualityToneAndBadge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		q     Quality
		tone  Tone
		badge Badge
	}{
		{QualityExcellent, ToneExcellent, BadgeBad},
		{QualityGood, ToneGood, BadgeGood},
		{QualityWarning, ToneWarning, BadgeBad},
		{QualityBad, ToneCritical, BadgeBad},
		{QualityUnknown, ToneCritical, BadgeBad},
		{Quality("good"), ToneCritical, BadgeBad},
	}
	for _, tc := range cases {
		if got := tc.q.Tone(); got != tc.tone {
			t.Fatalf("%q.Tone()=%q want %q", tc.q, got, tc.tone)
		}
		if got := tc.q.Badge(); got != tc.badge {
			t.Fatalf("%q.Badge()=%q want %q", tc.q, got, tc.badge)
		}
	}
}
