package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayouts are tried in order; the first successful parse wins.
// Values without a zone are read as UTC.
var TimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseTimestamps converts raw cells into absolute times. The result has the
// same length and order as values; any unparseable cell fails the whole call.
func ParseTimestamps(values []any) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		ts, ok := parseTimestamp(v)
		if !ok {
			return nil, &DateParseError{Row: i, Value: v}
		}
		out[i] = ts
	}
	return out, nil
}

func parseTimestamp(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value, true
	case *time.Time:
		if value == nil {
			return time.Time{}, false
		}
		return *value, true
	case string:
		return parseTimestampString(value)
	case float64:
		return epochSeconds(value)
	case int64:
		return epochInt(value)
	case int:
		return epochInt(int64(value))
	default:
		return time.Time{}, false
	}
}

func parseTimestampString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range TimestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return epochSeconds(f)
}

// Epoch values are limited to calendar years 0001 through 9999.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

func epochInt(sec int64) (time.Time, bool) {
	if sec < minEpochSeconds || sec > maxEpochSeconds {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

func epochSeconds(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < minEpochSeconds || f > maxEpochSeconds {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), true
}
