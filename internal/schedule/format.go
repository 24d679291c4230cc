package schedule

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatNameAndCountdown   = "name-and-countdown"
	FormatFull               = "full"
)

// Time format names accepted in configuration.
const (
	TimeFormat12h = "12h"
	TimeFormat24h = "24h"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Full prayer name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Iqama time, e.g. "3:15 PM" or "15:15"
	Remaining string // Compact countdown, e.g. "2h 15m"
	Countdown string // Long countdown, e.g. "2 Hours 15 Minutes"
	Hours     int
	Minutes   int
	Tomorrow  bool
}

// DisplayTime renders an iqama time in the configured time format. Stored
// strings are 12-hour; 24h re-renders them, and unreadable strings pass
// through untouched.
func DisplayTime(raw, timeFormat string) string {
	if timeFormat != TimeFormat24h {
		return raw
	}
	if m, ok := ParseClock(raw); ok {
		return Format24(m)
	}
	return raw
}

// FormatOutput formats the next prayer according to the chosen mode.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .ShortName, .Time, .Remaining,
// .Countdown, .Hours, .Minutes, .Tomorrow
//
// Example: "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m"
func FormatOutput(n Next, mode, timeFormat string) string {
	remaining := FormatRemaining(n.MinutesRemaining)
	timeStr := DisplayTime(n.Iqama, timeFormat)
	short := mosque.ShortNames[n.Name]

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      n.Name,
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Countdown: n.Countdown(),
			Hours:     n.MinutesRemaining / 60,
			Minutes:   n.MinutesRemaining % 60,
			Tomorrow:  n.Tomorrow,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", n.Name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", n.Name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatNameAndCountdown:
		return fmt.Sprintf("%s in %s", n.Name, n.Countdown())
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", n.Name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", n.Name, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
