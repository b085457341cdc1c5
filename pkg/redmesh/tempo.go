package redmesh

import (
	"math"

	"github.com/tidwall/gjson"
)

// Key-name pairs tried in order when the window arrives as an object.
var windowKeyPairs = [][2]string{
	{"min_seconds", "max_seconds"},
	{"min", "max"},
	{"minSeconds", "maxSeconds"},
	{"lower", "upper"},
	{"from", "to"},
	{"start", "end"},
}

// NormalizeTempo parses a scan-delay window from any of the shapes upstream
// uses: a [min,max] pair or an object with one of several synonymous key
// pairs. Invalid or missing input yields nil ("no delay configured"), never
// an error.
func NormalizeTempo(v gjson.Result) *TempoWindow {
	min, max, ok := normalizeWindow(v, false)
	if !ok {
		return nil
	}
	return &TempoWindow{MinSeconds: min, MaxSeconds: max}
}

// NormalizeTempoSteps parses a step-count window. Unlike NormalizeTempo it
// also accepts a single scalar, treated as both min and max.
func NormalizeTempoSteps(v gjson.Result) *StepWindow {
	min, max, ok := normalizeWindow(v, true)
	if !ok {
		return nil
	}
	return &StepWindow{Min: int(min), Max: int(max)}
}

func normalizeWindow(v gjson.Result, allowScalar bool) (float64, float64, bool) {
	if !v.Exists() || v.Type == gjson.Null {
		return 0, 0, false
	}

	if v.IsArray() {
		pair := v.Array()
		if len(pair) != 2 {
			return 0, 0, false
		}
		return checkWindow(numOr(pair[0], math.NaN()), numOr(pair[1], math.NaN()))
	}

	if v.IsObject() {
		for _, keys := range windowKeyPairs {
			lo, hi := v.Get(keys[0]), v.Get(keys[1])
			if lo.Exists() && hi.Exists() {
				return checkWindow(numOr(lo, math.NaN()), numOr(hi, math.NaN()))
			}
		}
		return 0, 0, false
	}

	if allowScalar {
		n := numOr(v, math.NaN())
		return checkWindow(n, n)
	}
	return 0, 0, false
}

func checkWindow(min, max float64) (float64, float64, bool) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, 0, false
	}
	if min <= 0 || max < min {
		return 0, 0, false
	}
	return min, max, true
}
