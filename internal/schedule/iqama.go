package schedule

import "github.com/smokyabdulrahman/mosque-times/internal/mosque"

// DisplayIqama derives the iqama string shown next to a prayer.
//
// A fixed policy with a value returns it verbatim. Otherwise the offset is
// added to the adhan time, wrapping past midnight. An absent or malformed
// adhan yields Placeholder.
func DisplayIqama(adhan string, policy mosque.IqamaPolicy, fixed string, offset int) string {
	if policy == mosque.IqamaFixed && fixed != "" {
		return fixed
	}

	minutes, ok := ParseClock(adhan)
	if !ok {
		return Placeholder
	}
	return FormatClock(minutes + offset)
}

// EntryIqama is DisplayIqama applied to a stored prayer entry.
func EntryIqama(e mosque.PrayerEntry) string {
	return DisplayIqama(e.Adhan, e.Policy, e.Iqama, e.Offset)
}
