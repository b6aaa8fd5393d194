package normalize

import (
	"strings"
	"time"

	"socialmall/internal/domain/raw"
)

var timeFields = []string{"createdAt", "created", "time", "timestamp"}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z07:00", "2006-01-02 15:04:05"}

// parseTime reads the creation time of a record. Unparseable values give the
// zero time.
func parseTime(v raw.Value) time.Time {
	return toTime(v.First(timeFields...))
}

func toTime(v raw.Value) time.Time {
	switch v.Kind() {
	case raw.String:
		s, _ := v.AsString()
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		if f, ok := v.AsNumber(); ok {
			return fromEpoch(f)
		}
	case raw.Number:
		f, _ := v.AsNumber()
		return fromEpoch(f)
	case raw.Object:
		// Firestore timestamp exported as {_seconds, _nanoseconds}
		secs, ok := v.First("_seconds", "seconds").AsNumber()
		if !ok {
			return time.Time{}
		}
		nanos, _ := v.First("_nanoseconds", "nanos").AsNumber()
		return time.Unix(int64(secs), int64(nanos)).UTC()
	}
	return time.Time{}
}

// fromEpoch treats large values as milliseconds.
func fromEpoch(f float64) time.Time {
	if f <= 0 {
		return time.Time{}
	}
	if f > 1e11 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}
