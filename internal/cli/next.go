package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
	"github.com/smokyabdulrahman/mosque-times/internal/server"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next iqama with countdown",
		Long: "Print the next congregation and the time left until its iqama on a single line,\n" +
			"suitable for status bars such as tmux or polybar.",
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", schedule.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, name-and-countdown, full, or a custom Go template")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	sync, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	snap, err := loadSnapshot(sync, hasPrayerTimes, "prayer times")
	if err != nil {
		return err
	}

	next := schedule.ResolveNext(*snap.PrayerTimes, snap.Location, time.Now())
	out := cmd.OutOrStdout()

	if FlagJSON {
		return printJSON(out, server.BuildNext(next, cfg.TimeFormat))
	}

	// A status bar keeps its slot even when no iqama time can be read.
	if next == nil {
		fmt.Fprint(out, schedule.Placeholder)
		return nil
	}

	fmt.Fprint(out, schedule.FormatOutput(*next, flagFormat, cfg.TimeFormat))
	return nil
}
