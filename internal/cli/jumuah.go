package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/display"
	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
	"github.com/smokyabdulrahman/mosque-times/internal/server"
)

func newJumuahCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "jumuah",
		Aliases: []string{"friday"},
		Short:   "Show the Jumu'ah sessions",
		RunE:    runJumuah,
	}
}

func runJumuah(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	sync, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	snap, err := loadSnapshot(sync, func(s datasync.Snapshot) bool { return s.Jumuah != nil }, "Jumu'ah times")
	if err != nil {
		return err
	}

	now := time.Now()
	out := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(out, server.BuildJumuah(snap, now))
	}

	printJumuahRich(out, theme, snap, now, cfg.TimeFormat)
	return nil
}

func printJumuahRich(out io.Writer, th display.Theme, snap datasync.Snapshot, now time.Time, timeFormat string) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", th.Bold("Jumu'ah"))
	printBanners(out, th, snap, snap.Jumuah.LastUpdated, now)
	fmt.Fprintln(out)

	if len(snap.Jumuah.Sessions) == 0 {
		fmt.Fprintf(out, "  %s\n\n", th.Gray("No sessions scheduled."))
		return
	}

	tbl := display.NewTable(th, []string{"Session", "Khutbah", "Iqama", "Khateeb"})
	for i, s := range snap.Jumuah.Sessions {
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if s.Location != "" {
			label += " (" + s.Location + ")"
		}
		iqama := s.Iqama
		if iqama != "" {
			iqama = schedule.DisplayTime(iqama, timeFormat)
		}
		tbl.AddRow([]string{th.Cyan(label), schedule.DisplayTime(s.Khutbah, timeFormat), iqama, s.Khateeb})
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)
}
