package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/config"
	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/display"
	"github.com/smokyabdulrahman/mosque-times/internal/freshness"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show data freshness and sync state",
		Long:  "Load every document and report whether it is present, when it was last\nupdated by the mosque, and whether it came from the local cache.",
		RunE:  runStatus,
	}
}

type docStatus struct {
	Name        string     `json:"name"`
	Present     bool       `json:"present"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Stale       bool       `json:"stale"`
}

type statusJSON struct {
	MosqueID     string      `json:"mosque_id"`
	APIURL       string      `json:"api_url,omitempty"`
	CacheBackend string      `json:"cache_backend"`
	Timezone     string      `json:"timezone"`
	FromCache    bool        `json:"from_cache"`
	Error        string      `json:"error,omitempty"`
	Documents    []docStatus `json:"documents"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	sync, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	st := buildStatus(cfg, sync.Load(), time.Now())
	out := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(out, st)
	}
	printStatusRich(out, theme, st)
	return nil
}

func buildStatus(cfg *config.Config, snap datasync.Snapshot, now time.Time) statusJSON {
	st := statusJSON{
		MosqueID:     cfg.MosqueID,
		APIURL:       cfg.APIURL,
		CacheBackend: cfg.CacheBackend,
		Timezone:     snap.Location.String(),
		FromCache:    snap.FromCache,
	}
	if snap.Err != nil {
		st.Error = snap.Err.Error()
	}

	doc := func(name string, present bool, updated *mosque.Timestamp) docStatus {
		d := docStatus{Name: name, Present: present}
		if !present {
			return d
		}
		if t, ok := freshness.Normalize(updated); ok {
			local := t.In(snap.Location)
			d.LastUpdated = &local
		}
		d.Stale = freshness.IsStale(updated, now, snap.Location)
		return d
	}

	var pt, j, s *mosque.Timestamp
	if snap.PrayerTimes != nil {
		pt = snap.PrayerTimes.LastUpdated
	}
	if snap.Jumuah != nil {
		j = snap.Jumuah.LastUpdated
	}
	if snap.Settings != nil {
		s = snap.Settings.LastUpdated
	}
	st.Documents = []docStatus{
		doc("Prayer times", snap.PrayerTimes != nil, pt),
		doc("Jumu'ah", snap.Jumuah != nil, j),
		doc("Settings", snap.Settings != nil, s),
	}
	return st
}

func printStatusRich(out io.Writer, th display.Theme, st statusJSON) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-9s %s\n", "Mosque", st.MosqueID)
	if st.APIURL != "" {
		fmt.Fprintf(out, "  %-9s %s\n", "API", st.APIURL)
	}
	fmt.Fprintf(out, "  %-9s %s\n", "Cache", st.CacheBackend)
	fmt.Fprintf(out, "  %-9s %s\n", "Timezone", st.Timezone)
	fmt.Fprintln(out)

	tbl := display.NewTable(th, []string{"Document", "Status", "Last updated"})
	for _, d := range st.Documents {
		status := th.Green("ok")
		switch {
		case !d.Present:
			status = th.Red("missing")
		case d.Stale:
			status = th.Yellow("stale")
		}
		updated := ""
		if d.LastUpdated != nil {
			updated = d.LastUpdated.Format("Mon 02 Jan 15:04")
		}
		tbl.AddRow([]string{d.Name, status, updated})
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)

	if st.FromCache {
		fmt.Fprintf(out, "  %s\n", th.Gray("Served from the local cache."))
	}
	if st.Error != "" {
		fmt.Fprintf(out, "  %s %s\n", th.Red("error:"), st.Error)
	}
	fmt.Fprintln(out)
}
