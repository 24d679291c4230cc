package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinutesPerDay is the length of a mosque day in minutes.
const MinutesPerDay = 24 * 60

// Placeholder is shown wherever a time cannot be derived.
const Placeholder = "--:--"

var clockPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*$`)

// ParseClock converts a 12-hour string like "5:30 AM" into minutes since
// midnight. The bool is false for anything that is not a valid 12-hour time.
func ParseClock(raw string) (int, bool) {
	m := clockPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return 0, false
	}

	hour %= 12
	if m[3][0] == 'P' || m[3][0] == 'p' {
		hour += 12
	}
	return hour*60 + minute, true
}

// FormatClock renders minutes since midnight as "h:mm AM". Values outside
// a day wrap around it.
func FormatClock(minutes int) string {
	minutes = wrapDay(minutes)
	hour, minute := minutes/60, minutes%60

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// Format24 renders minutes since midnight as "15:04".
func Format24(minutes int) string {
	minutes = wrapDay(minutes)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinutesOfDay is the wall-clock minute of t as seen in loc.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}

func wrapDay(minutes int) int {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return minutes
}
