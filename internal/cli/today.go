package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/display"
	"github.com/smokyabdulrahman/mosque-times/internal/freshness"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
	"github.com/smokyabdulrahman/mosque-times/internal/server"
)

var flagDate string

func hasPrayerTimes(s datasync.Snapshot) bool { return s.PrayerTimes != nil }

func runToday(cmd *cobra.Command, args []string) error {
	// Get merged config (CLI flags > environment > config file > defaults).
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	sync, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	var snap datasync.Snapshot
	if flagDate != "" {
		date, perr := time.Parse("2006-01-02", flagDate)
		if perr != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", flagDate)
		}
		snap, err = requireDoc(sync.LoadDate(date), hasPrayerTimes, "prayer times for "+flagDate)
	} else {
		snap, err = loadSnapshot(sync, hasPrayerTimes, "prayer times")
	}
	if err != nil {
		return err
	}

	now := time.Now()
	out := cmd.OutOrStdout()

	if FlagJSON {
		v := server.BuildSchedule(snap, now, cfg.TimeFormat)
		if !snap.IsToday(now) {
			v = v.OtherDay()
		}
		return printJSON(out, v)
	}

	printTodayRich(out, theme, snap, now, cfg.TimeFormat)
	return nil
}

// printTodayRich renders the colored terminal output for today's schedule.
func printTodayRich(out io.Writer, th display.Theme, snap datasync.Snapshot, now time.Time, timeFormat string) {
	times := *snap.PrayerTimes
	r := schedule.Resolve(times, snap.Location, now)
	if !snap.IsToday(now) {
		r.Next, r.Current = nil, nil
	}

	fmt.Fprintln(out)
	title := "Prayer Times"
	if snap.Settings != nil && snap.Settings.Name != "" {
		title = snap.Settings.Name
	}
	fmt.Fprintf(out, "  %s\n", th.Bold(title))
	fmt.Fprintf(out, "  %s\n", th.Gray(snap.Date.Format("Monday 02 Jan 2006")+" · "+r.Location.String()))
	printBanners(out, th, snap, times.LastUpdated, now)
	fmt.Fprintln(out)

	tbl := display.NewTable(th, []string{"Prayer", "Adhan", "Iqama"})
	row := 0
	for _, e := range r.Entries {
		tbl.AddRow([]string{e.Name, schedule.DisplayTime(e.Adhan, timeFormat), schedule.DisplayTime(e.Iqama, timeFormat)})
		if r.Next != nil && !r.Next.Tomorrow && e.Name == r.Next.Name {
			tbl.SetHighlightRow(row)
		}
		row++

		// Sunrise has no congregation; it follows Fajr for reference.
		if e.Name == "Fajr" && times.Sunrise != "" {
			tbl.AddRow([]string{th.Dim("Sunrise"), th.Dim(schedule.DisplayTime(times.Sunrise, timeFormat)), ""})
			row++
		}
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)

	if r.Next != nil {
		fmt.Fprintf(out, "  %s\n\n", th.Accent(nextLine(*r.Next, timeFormat)))
	}
}

// nextLine renders "Next: Asr at 3:45 PM, in 2 Hours 45 Minutes".
func nextLine(n schedule.Next, timeFormat string) string {
	when := "at"
	if n.Tomorrow {
		when = "tomorrow at"
	}
	return fmt.Sprintf("Next: %s %s %s, in %s", n.Name, when, schedule.DisplayTime(n.Iqama, timeFormat), n.Countdown())
}

// printBanners prints the staleness and offline warnings, if any.
func printBanners(out io.Writer, th display.Theme, snap datasync.Snapshot, lastUpdated *mosque.Timestamp, now time.Time) {
	if freshness.IsStale(lastUpdated, now, snap.Location) {
		updated, _ := freshness.Normalize(lastUpdated)
		fmt.Fprintf(out, "  %s\n", th.Yellow(fmt.Sprintf("⚠ Not updated since %s; times may be out of date.",
			updated.In(snap.Location).Format("Mon 02 Jan"))))
	}
	if snap.Err != nil && snap.FromCache {
		fmt.Fprintf(out, "  %s\n", th.Gray("Offline: showing saved data."))
	}
}

// printJSON writes v as indented JSON.
func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
