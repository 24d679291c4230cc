// Package schedule resolves a day's stored prayer times against the mosque's
// wall clock: iqama display times, the next congregation and its countdown.
//
// Everything here is a pure function of its inputs; callers re-run it on each
// render tick.
package schedule

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

// Entry is one prayer of the resolved day.
type Entry struct {
	Name    string
	Adhan   string
	Iqama   string // display string, Placeholder when unknown
	Minutes int    // iqama minutes since midnight, valid only when OK
	OK      bool
}

// Next is the upcoming congregation relative to "now".
type Next struct {
	Name             string
	Iqama            string
	Minutes          int // iqama minutes since midnight
	MinutesRemaining int
	Tomorrow         bool // rolled over to the next day's Fajr
}

// Countdown renders MinutesRemaining with FormatCountdown.
func (n Next) Countdown() string {
	return FormatCountdown(n.MinutesRemaining)
}

// Resolved is the derived view of a PrayerTimeSet at one instant.
type Resolved struct {
	Entries    []Entry
	Current    *Entry // last congregation already started today, if any
	Next       *Next
	NowMinutes int
	Location   *time.Location
}

// Resolve computes the iqama entries and the next prayer for now, reading
// the wall clock in loc.
func Resolve(times mosque.PrayerTimeSet, loc *time.Location, now time.Time) Resolved {
	if loc == nil {
		loc, _ = mosque.LoadLocation("")
	}
	nowMin := MinutesOfDay(now, loc)

	r := Resolved{NowMinutes: nowMin, Location: loc}
	for _, e := range times.Entries() {
		iqama := EntryIqama(e.PrayerEntry)
		minutes, ok := ParseClock(iqama)
		r.Entries = append(r.Entries, Entry{
			Name:    e.Name,
			Adhan:   e.Adhan,
			Iqama:   iqama,
			Minutes: minutes,
			OK:      ok,
		})
	}

	for i := range r.Entries {
		e := &r.Entries[i]
		if !e.OK {
			continue
		}
		if e.Minutes > nowMin {
			r.Next = &Next{
				Name:             e.Name,
				Iqama:            e.Iqama,
				Minutes:          e.Minutes,
				MinutesRemaining: e.Minutes - nowMin,
			}
			break
		}
		r.Current = e
	}

	if r.Next == nil {
		fajr := r.Entries[0]
		if fajr.OK {
			r.Next = &Next{
				Name:             fajr.Name,
				Iqama:            fajr.Iqama,
				Minutes:          fajr.Minutes,
				MinutesRemaining: (MinutesPerDay - nowMin) + fajr.Minutes,
				Tomorrow:         true,
			}
		}
	}

	return r
}

// ResolveNext returns the next congregation, or nil when no iqama time of
// the set can be read.
func ResolveNext(times mosque.PrayerTimeSet, loc *time.Location, now time.Time) *Next {
	return Resolve(times, loc, now).Next
}

// ResolveNextTZ is ResolveNext with an IANA zone name; an empty or unknown
// zone uses mosque.DefaultTimezone.
func ResolveNextTZ(times mosque.PrayerTimeSet, tz string, now time.Time) *Next {
	loc, _ := mosque.LoadLocation(tz)
	return ResolveNext(times, loc, now)
}

// FormatCountdown renders a minute count as "2 Hours 5 Minutes", dropping
// the hour part below one hour.
func FormatCountdown(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%d %s", m, plural(m, "Minute"))
	}
	return fmt.Sprintf("%d %s %d %s", h, plural(h, "Hour"), m, plural(m, "Minute"))
}

// FormatRemaining is the compact "2h 15m" form used in status bars.
func FormatRemaining(minutes int) string {
	if minutes < 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
