package server

import (
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/freshness"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
)

// PrayerView is one row of the day's schedule.
type PrayerView struct {
	Name    string `json:"name"`
	Adhan   string `json:"adhan"`
	Iqama   string `json:"iqama"`
	Current bool   `json:"current,omitempty"`
	Next    bool   `json:"next,omitempty"`
}

// NextView is the upcoming congregation.
type NextView struct {
	Name             string `json:"name"`
	Iqama            string `json:"iqama"`
	MinutesRemaining int    `json:"minutes_remaining"`
	Countdown        string `json:"countdown"`
	Remaining        string `json:"remaining"`
	Tomorrow         bool   `json:"tomorrow,omitempty"`
}

// ScheduleView is the JSON shape of a resolved day, shared by the display
// server and `--json` output.
type ScheduleView struct {
	Mosque    string       `json:"mosque,omitempty"`
	Date      string       `json:"date"`
	Timezone  string       `json:"timezone"`
	Sunrise   string       `json:"sunrise,omitempty"`
	Prayers   []PrayerView `json:"prayers"`
	Current   string       `json:"current,omitempty"`
	Next      *NextView    `json:"next"`
	Stale     bool         `json:"stale"`
	FromCache bool         `json:"from_cache"`
}

// JumuahView lists the Friday sessions.
type JumuahView struct {
	Sessions []mosque.JumuahSession `json:"sessions"`
	Stale    bool                   `json:"stale"`
}

// MosqueView is the mosque's public profile.
type MosqueView struct {
	mosque.Settings
	Timezone string `json:"timezone"`
	Stale    bool   `json:"stale"`
}

// BuildNext converts a resolved next prayer. It returns nil for nil.
func BuildNext(n *schedule.Next, timeFormat string) *NextView {
	if n == nil {
		return nil
	}
	return &NextView{
		Name:             n.Name,
		Iqama:            schedule.DisplayTime(n.Iqama, timeFormat),
		MinutesRemaining: n.MinutesRemaining,
		Countdown:        n.Countdown(),
		Remaining:        schedule.FormatRemaining(n.MinutesRemaining),
		Tomorrow:         n.Tomorrow,
	}
}

// BuildSchedule resolves the snapshot's prayer times at now. The snapshot
// must carry prayer times.
func BuildSchedule(snap datasync.Snapshot, now time.Time, timeFormat string) ScheduleView {
	times := *snap.PrayerTimes
	r := schedule.Resolve(times, snap.Location, now)

	v := ScheduleView{
		Date:      snap.Date.Format("2006-01-02"),
		Timezone:  r.Location.String(),
		Sunrise:   schedule.DisplayTime(times.Sunrise, timeFormat),
		Next:      BuildNext(r.Next, timeFormat),
		Stale:     freshness.IsStale(times.LastUpdated, now, r.Location),
		FromCache: snap.FromCache,
	}
	if snap.Settings != nil {
		v.Mosque = snap.Settings.Name
	}
	if times.Date != "" {
		v.Date = times.Date
	}
	if r.Current != nil {
		v.Current = r.Current.Name
	}

	for _, e := range r.Entries {
		v.Prayers = append(v.Prayers, PrayerView{
			Name:    e.Name,
			Adhan:   schedule.DisplayTime(e.Adhan, timeFormat),
			Iqama:   schedule.DisplayTime(e.Iqama, timeFormat),
			Current: r.Current != nil && e.Name == r.Current.Name,
			Next:    r.Next != nil && !r.Next.Tomorrow && e.Name == r.Next.Name,
		})
	}
	return v
}

// OtherDay drops the fields that only make sense for today's schedule.
func (v ScheduleView) OtherDay() ScheduleView {
	v.Current = ""
	v.Next = nil
	prayers := make([]PrayerView, len(v.Prayers))
	for i, p := range v.Prayers {
		p.Current, p.Next = false, false
		prayers[i] = p
	}
	v.Prayers = prayers
	return v
}

// BuildJumuah wraps the snapshot's Jumu'ah sessions.
func BuildJumuah(snap datasync.Snapshot, now time.Time) JumuahView {
	return JumuahView{
		Sessions: snap.Jumuah.Sessions,
		Stale:    freshness.IsStale(snap.Jumuah.LastUpdated, now, snap.Location),
	}
}

// BuildMosque wraps the snapshot's settings.
func BuildMosque(snap datasync.Snapshot, now time.Time) MosqueView {
	return MosqueView{
		Settings: *snap.Settings,
		Timezone: snap.Location.String(),
		Stale:    freshness.IsStale(snap.Settings.LastUpdated, now, snap.Location),
	}
}
