package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/display"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
	"github.com/smokyabdulrahman/mosque-times/internal/server"
)

func newMosqueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mosque",
		Short: "Show the mosque's contact details",
		RunE:  runMosque,
	}
}

func runMosque(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	sync, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	snap, err := loadSnapshot(sync, func(s datasync.Snapshot) bool { return s.Settings != nil }, "mosque settings")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(out, server.BuildMosque(snap, time.Now()))
	}

	printMosqueRich(out, theme, snap)
	return nil
}

func printMosqueRich(out io.Writer, th display.Theme, snap datasync.Snapshot) {
	s := snap.Settings

	fmt.Fprintln(out)
	name := s.Name
	if name == "" {
		name = "Mosque"
	}
	fmt.Fprintf(out, "  %s\n\n", th.Bold(name))

	tz := snap.Location.String()
	if _, fallback := s.Location(); fallback && tz == mosque.DefaultTimezone {
		tz += th.Gray(" (default)")
	}

	rows := []struct{ label, value string }{
		{"Address", s.Address},
		{"Phone", s.Phone},
		{"Email", s.Email},
		{"Website", s.Website},
		{"Donate", s.DonationURL},
		{"Timezone", tz},
	}
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		fmt.Fprintf(out, "  %-9s %s\n", r.label, r.value)
	}
	fmt.Fprintln(out)
}
