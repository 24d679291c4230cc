// Package mosque holds the documents the mosque's remote store serves:
// the daily prayer schedule, the Jumu'ah sessions and the mosque settings.
package mosque

import (
	"bytes"
	"encoding/json"
	"time"
	_ "time/tzdata" // mosque zones must resolve on hosts without zoneinfo
)

// DefaultTimezone is used when the settings carry no usable IANA zone.
const DefaultTimezone = "America/New_York"

// PrayerNames lists the five daily prayers in chronological order.
var PrayerNames = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// ShortNames maps prayer names to single-character abbreviations.
var ShortNames = map[string]string{
	"Fajr":    "F",
	"Sunrise": "S",
	"Dhuhr":   "D",
	"Asr":     "A",
	"Maghrib": "M",
	"Isha":    "I",
	"Jumuah":  "J",
}

// IqamaPolicy selects how the iqama time of a prayer is derived.
type IqamaPolicy string

const (
	IqamaFixed  IqamaPolicy = "fixed"
	IqamaOffset IqamaPolicy = "offset"
)

// PrayerEntry is one prayer of the day as stored by the mosque admin.
type PrayerEntry struct {
	Adhan  string      `json:"adhan"`  // "5:30 AM"
	Policy IqamaPolicy `json:"policy"` // "fixed" or "offset"
	Iqama  string      `json:"iqama,omitempty"`
	Offset int         `json:"offset,omitempty"` // minutes after adhan
}

// PrayerTimeSet is the schedule for one calendar day.
type PrayerTimeSet struct {
	Date        string      `json:"date"` // YYYY-MM-DD
	Fajr        PrayerEntry `json:"fajr"`
	Sunrise     string      `json:"sunrise,omitempty"`
	Dhuhr       PrayerEntry `json:"dhuhr"`
	Asr         PrayerEntry `json:"asr"`
	Maghrib     PrayerEntry `json:"maghrib"`
	Isha        PrayerEntry `json:"isha"`
	LastUpdated *Timestamp  `json:"last_updated,omitempty"`
}

// NamedEntry pairs a prayer name with its stored entry.
type NamedEntry struct {
	Name string
	PrayerEntry
}

// Entries returns the five prayers in canonical order.
func (p PrayerTimeSet) Entries() []NamedEntry {
	return []NamedEntry{
		{"Fajr", p.Fajr},
		{"Dhuhr", p.Dhuhr},
		{"Asr", p.Asr},
		{"Maghrib", p.Maghrib},
		{"Isha", p.Isha},
	}
}

// JumuahSession is one Friday congregation.
type JumuahSession struct {
	Khutbah  string `json:"khutbah"`
	Iqama    string `json:"iqama,omitempty"`
	Label    string `json:"label,omitempty"` // e.g. "1st Jumu'ah", "Arabic"
	Khateeb  string `json:"khateeb,omitempty"`
	Location string `json:"location,omitempty"`
}

// JumuahTimeSet lists the sessions in the order the mosque holds them.
type JumuahTimeSet struct {
	Sessions    []JumuahSession `json:"sessions"`
	LastUpdated *Timestamp      `json:"last_updated,omitempty"`
}

// Settings is the mosque's configuration document.
type Settings struct {
	Name        string     `json:"name"`
	Address     string     `json:"address,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Website     string     `json:"website,omitempty"`
	DonationURL string     `json:"donation_url,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
	LastUpdated *Timestamp `json:"last_updated,omitempty"`
}

// Location resolves the settings' timezone, falling back to DefaultTimezone
// when it is empty or unknown. The bool reports whether the fallback was used.
func (s *Settings) Location() (*time.Location, bool) {
	if s != nil && s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc, false
		}
	}
	return LoadLocation("")
}

// LoadLocation loads tz, falling back to DefaultTimezone (and then UTC).
func LoadLocation(tz string) (*time.Location, bool) {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, false
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC, true
	}
	return loc, true
}

// Timestamp is the document store's seconds/nanoseconds instant. The zero
// Timestamp means the instant is unknown.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// NewTimestamp converts t into a Timestamp.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// AsTime returns the instant as a time.Time in UTC.
func (t Timestamp) AsTime() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanoseconds)).UTC()
}

// IsZero reports whether the instant is unknown.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanoseconds == 0
}

// UnmarshalJSON accepts {"seconds","nanoseconds"}, the admin SDK's
// {"_seconds","_nanoseconds"} and RFC 3339 strings. Any other shape leaves
// the zero Timestamp so a bad last_updated never rejects its document.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if parsed, ok := parseTimestamp(data); ok {
		*t = parsed
	}
	return nil
}

func parseTimestamp(data []byte) (Timestamp, bool) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Timestamp{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Timestamp{}, false
		}
		return *NewTimestamp(parsed), true
	}

	var raw struct {
		Seconds      *int64 `json:"seconds"`
		Nanoseconds  int32  `json:"nanoseconds"`
		USeconds     *int64 `json:"_seconds"`
		UNanoseconds int32  `json:"_nanoseconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Timestamp{}, false
	}
	switch {
	case raw.Seconds != nil:
		return Timestamp{Seconds: *raw.Seconds, Nanoseconds: raw.Nanoseconds}, true
	case raw.USeconds != nil:
		return Timestamp{Seconds: *raw.USeconds, Nanoseconds: raw.UNanoseconds}, true
	}
	return Timestamp{}, false
}
