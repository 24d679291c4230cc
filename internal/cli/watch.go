package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
)

// everyMinute fires at the top of each minute, when countdowns change.
const everyMinute = "* * * * *"

var flagWatchFormat string

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the next iqama every minute",
		Long: "Print the next congregation once a minute until interrupted. Documents are\n" +
			"reloaded when the refresh interval passes or the mosque's day changes.",
		RunE: runWatch,
	}
	cmd.Flags().StringVar(&flagWatchFormat, "format", schedule.FormatNameAndCountdown, "Display format (see 'next --help')")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	ds, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{
		sync:       ds,
		out:        cmd.OutOrStdout(),
		format:     flagWatchFormat,
		timeFormat: cfg.TimeFormat,
		refresh:    cfg.Refresh(time.Hour),
		now:        time.Now,
	}
	if _, err := loadSnapshot(ds, hasPrayerTimes, "prayer times"); err != nil {
		return err
	}
	w.loadedAt = w.now()

	return w.run(ctx)
}

// watcher renders one line per tick. Cron jobs may overlap, so tick is
// serialized.
type watcher struct {
	sync       *datasync.Sync
	out        io.Writer
	format     string
	timeFormat string
	refresh    time.Duration
	now        func() time.Time

	mu       sync.Mutex
	loadedAt time.Time
}

func (w *watcher) run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(w.sync.Current().Location))
	if _, err := c.AddFunc(everyMinute, w.tick); err != nil {
		return fmt.Errorf("failed to schedule watch: %w", err)
	}

	w.tick()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (w *watcher) tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	snap := w.sync.Current()
	if w.due(snap, now) {
		snap = w.sync.Load()
		w.loadedAt = now
		if snap.Err != nil {
			log.Warn().Err(snap.Err).Msg("refresh failed")
		}
	}

	fmt.Fprintln(w.out, w.line(snap, now))
}

// due reports whether documents should be reloaded: the refresh interval
// has passed or the mosque's calendar day is no longer the loaded one.
func (w *watcher) due(snap datasync.Snapshot, now time.Time) bool {
	if snap.PrayerTimes == nil || now.Sub(w.loadedAt) >= w.refresh {
		return true
	}
	return !snap.IsToday(now)
}

func (w *watcher) line(snap datasync.Snapshot, now time.Time) string {
	if snap.PrayerTimes == nil {
		return schedule.Placeholder
	}
	next := schedule.ResolveNext(*snap.PrayerTimes, snap.Location, now)
	if next == nil {
		return schedule.Placeholder
	}
	return schedule.FormatOutput(*next, w.format, w.timeFormat)
}
