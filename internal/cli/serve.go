package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/server"
)

// atMidnight reloads the new day's schedule in the mosque's timezone.
const atMidnight = "0 0 * * *"

var flagListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule as JSON for display screens",
		Long: "Run an HTTP server exposing /health, /api/schedule, /api/next, /api/jumuah\n" +
			"and /api/mosque. Documents are refreshed in the background.",
		RunE: runServe,
	}
	cmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (overrides config, default :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flagListen
	}

	ds, closeCache, err := newSync(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed first load still serves: endpoints answer 503 until data arrives.
	snap := ds.Load()
	if snap.Err != nil {
		log.Warn().Err(snap.Err).Msg("initial load incomplete")
	}

	c := newRefreshCron(snap.Location)
	if err := scheduleRefresh(c, ds, cfg.Refresh(time.Hour)); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	return server.New(ds, cfg.TimeFormat).ListenAndServe(ctx, cfg.Listen)
}

// newRefreshCron runs jobs in loc and skips a run while the previous one
// is still loading, e.g. when the interval and midnight reloads coincide.
func newRefreshCron(loc *time.Location) *cron.Cron {
	logger := cronLogger{}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

// cronLogger sends cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// scheduleRefresh registers the periodic and the midnight reload.
func scheduleRefresh(c *cron.Cron, ds *datasync.Sync, every time.Duration) error {
	if every < time.Minute {
		every = time.Minute
	}
	reload := func() {
		if snap := ds.Load(); snap.Err != nil {
			log.Warn().Err(snap.Err).Msg("refresh failed")
		}
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", every), reload); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	if _, err := c.AddFunc(atMidnight, reload); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	return nil
}
