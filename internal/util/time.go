package util

import (
	"fmt"
	"time"
)

// timeLayouts are the wire forms the tracking service and legacy caches
// emit timestamps in.
var timeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime coerces a timestamp-like value to a naive-UTC time.Time.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return NaiveUTC(t), nil
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return NaiveUTC(parsed), nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a timestamp", t)
	}
	return time.Time{}, fmt.Errorf("%T is not a timestamp", v)
}

// NaiveUTC shifts t to UTC and rebuilds it without a monotonic reading,
// mirroring the naive datetimes the service protocol uses.
func NaiveUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}
