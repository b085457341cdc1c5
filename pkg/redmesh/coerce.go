package redmesh

import (
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// pick returns the first field of v that exists among names. This is the one
// place that knows how to probe the upstream's inconsistent field naming;
// every normalizer goes through it.
func pick(v gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if f := v.Get(name); f.Exists() {
			return f
		}
	}
	return gjson.Result{}
}

// values coerces v into a slice of results: an array yields its elements, a
// missing or null value yields nil, anything else is wrapped as a single
// element. Callers never branch on "is this an array".
func values(v gjson.Result) []gjson.Result {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.IsArray() {
		return v.Array()
	}
	return []gjson.Result{v}
}

// CoerceArray is the caller-facing variant of values for already-decoded
// input: nil becomes an empty slice, a slice passes through unchanged, any
// other value is wrapped. Idempotent.
func CoerceArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	}
	return []any{v}
}

// numOr converts v to a float64, using def for missing or non-numeric input.
func numOr(v gjson.Result, def float64) float64 {
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		n := v.Float()
		// gjson returns 0 for unparseable strings; only trust it when the
		// string actually looks numeric.
		if n == 0 && strings.TrimLeft(v.Str, "-+0.") != "" {
			return def
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return n
	}
	return def
}

// intOr converts v to an int, using def for missing or non-numeric input.
func intOr(v gjson.Result, def int) int {
	return int(numOr(v, float64(def)))
}

// boolOf accepts JSON booleans plus the usual truthy spellings upstream
// produces ("true", "1", 1).
func boolOf(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Float() != 0
	case gjson.String:
		return ParseBool(v.Str, false)
	}
	return false
}

// ParseBool parses environment-style flag values. It accepts "1"/"0" and
// case-insensitive true/false, yes/no, on/off, returning def for anything
// else (including the empty string).
func ParseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// intsOf coerces v into a list of ints, dropping non-numeric elements.
func intsOf(v gjson.Result) []int {
	var out []int
	for _, e := range values(v) {
		if e.Type == gjson.Number {
			out = append(out, int(e.Int()))
		}
	}
	return out
}

// stringsOf coerces v into a list of strings, dropping empty elements.
func stringsOf(v gjson.Result) []string {
	var out []string
	for _, e := range values(v) {
		if s := e.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// portMap passes through a per-port result object without interpreting the
// leaf values.
func portMap(v gjson.Result) PortInfoMap {
	if !v.IsObject() {
		return nil
	}
	out := make(PortInfoMap)
	v.ForEach(func(port, info gjson.Result) bool {
		if !info.IsObject() {
			return true
		}
		entry := make(map[string]any)
		info.ForEach(func(k, val gjson.Result) bool {
			entry[k.String()] = val.Value()
			return true
		})
		out[port.String()] = entry
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// timeOf parses a timestamp that upstream sends either as an ISO-8601 string
// or as epoch seconds.
func timeOf(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		sec := v.Float()
		if sec <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(sec), int64((sec-math.Floor(sec))*1e9)).UTC(), true
	case gjson.String:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, v.Str); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
