// Package freshness decides whether cached mosque documents are out of date.
//
// A document is stale once the mosque's calendar day has moved past the day
// it was last updated on. Age in hours does not matter.
package freshness

import (
	"math"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

// Normalize converts the timestamp shapes the document store and its SDKs
// produce into a time.Time. The bool is false when v has no recognizable
// shape; Normalize never panics.
func Normalize(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return ts, !ts.IsZero()
	case *time.Time:
		if ts == nil || ts.IsZero() {
			return time.Time{}, false
		}
		return *ts, true
	case mosque.Timestamp:
		return ts.AsTime(), !ts.IsZero()
	case *mosque.Timestamp:
		if ts == nil || ts.IsZero() {
			return time.Time{}, false
		}
		return ts.AsTime(), true
	case interface{ AsTime() time.Time }:
		return safeCall(ts.AsTime)
	case interface{ ToDate() time.Time }:
		return safeCall(ts.ToDate)
	case map[string]any:
		return fromMap(ts)
	default:
		return time.Time{}, false
	}
}

// IsStale reports whether lastUpdated falls on an earlier mosque-local
// calendar day than now. Absent or unreadable timestamps are never stale.
func IsStale(lastUpdated any, now time.Time, loc *time.Location) bool {
	updated, ok := Normalize(lastUpdated)
	if !ok {
		return false
	}
	if loc == nil {
		loc, _ = mosque.LoadLocation("")
	}
	return StartOfDay(updated, loc).Before(StartOfDay(now, loc))
}

// StartOfDay is local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// safeCall guards user-supplied conversion methods, which may be declared on
// pointer receivers and called through a nil pointer.
func safeCall(fn func() time.Time) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	t = fn()
	return t, !t.IsZero()
}

func fromMap(m map[string]any) (time.Time, bool) {
	secKey, nanoKey := "seconds", "nanoseconds"
	if _, ok := m[secKey]; !ok {
		secKey, nanoKey = "_seconds", "_nanoseconds"
	}

	sec, ok := number(m[secKey])
	if !ok {
		return time.Time{}, false
	}
	nsec := 0.0
	if raw, present := m[nanoKey]; present {
		if nsec, ok = number(raw); !ok {
			return time.Time{}, false
		}
	}
	return time.Unix(int64(sec), int64(nsec)).UTC(), true
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
