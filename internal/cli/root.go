package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/mosque-times/internal/api"
	"github.com/smokyabdulrahman/mosque-times/internal/cache"
	"github.com/smokyabdulrahman/mosque-times/internal/config"
	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/display"
)

// Global flags shared across all subcommands.
var (
	FlagMosque     string
	FlagAPIURL     string
	FlagTimezone   string
	FlagTimeFormat string
	FlagCacheDir   string
	FlagJSON       bool
	FlagNoColor    bool
	FlagLogLevel   string
)

// loadedConfig holds the config (file + environment) loaded during
// PersistentPreRunE.
var loadedConfig *config.Config

// theme is the color decision for this invocation.
var theme = display.Plain

// NewRootCmd creates the root command for the mosque-times CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "mosque-times",
		Short:   "Your mosque's prayer and iqama times",
		Long:    "Shows your mosque's daily prayer schedule, the next iqama with a countdown,\nJumu'ah sessions and announcements.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(FlagLogLevel, cmd.ErrOrStderr()); err != nil {
				return err
			}

			if err := config.LoadDotEnv(dotEnvPaths()...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}
			loadedConfig = cfg

			theme = display.DetectTheme(FlagNoColor || FlagJSON)
			return nil
		},
		// Default action: show today's schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("mosque-times version {{.Version}}\n")
	rootCmd.Flags().StringVar(&flagDate, "date", "", "Show another day's schedule (YYYY-MM-DD)")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagMosque, "mosque", "", "Mosque ID (overrides config)")
	pf.StringVar(&FlagAPIURL, "api-url", "", "Document API base URL")
	pf.StringVar(&FlagTimezone, "timezone", "", "Override the mosque's timezone (IANA name)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/mosque-times/)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.BoolVar(&FlagNoColor, "no-color", false, "Disable colored output")
	pf.StringVar(&FlagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newJumuahCmd())
	rootCmd.AddCommand(newMosqueCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newNotifyCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setupLogging points the global zerolog logger at w.
func setupLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	return nil
}

// dotEnvPaths lists .env files: the working directory first, then the
// config directory.
func dotEnvPaths() []string {
	paths := []string{".env"}
	if dir, err := config.Dir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	return paths
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Config{}
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	overrides := []struct {
		flag, key, value string
	}{
		{"mosque", "mosque_id", FlagMosque},
		{"api-url", "api_url", FlagAPIURL},
		{"timezone", "timezone", FlagTimezone},
		{"time-format", "time_format", FlagTimeFormat},
		{"cache-dir", "cache_dir", FlagCacheDir},
	}
	for _, o := range overrides {
		if !flagWasSet(flags, root, o.flag) {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return nil, fmt.Errorf("--%s: %w", o.flag, err)
		}
	}

	cfg.Merge(config.Defaults())
	return &cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// newSync wires the API client and the configured cache backend. The
// returned func releases the cache connection.
func newSync(cfg *config.Config) (*datasync.Sync, func(), error) {
	if cfg.MosqueID == "" {
		return nil, nil, fmt.Errorf("no mosque configured; run 'mosque-times config set mosque_id <id>' or pass --mosque")
	}

	client := api.NewClient(cfg.APIURL, cfg.MosqueID)
	client.Token = cfg.APIToken

	c, closeCache := openCache(cfg)
	s := datasync.New(client, c, datasync.Options{
		MosqueID: cfg.MosqueID,
		Timezone: cfg.Timezone,
		Refresh:  cfg.Refresh(time.Hour),
	})
	return s, closeCache, nil
}

// openCache opens the configured backend. Failures are non-fatal: the
// file cache is tried next and, failing that, caching is disabled.
func openCache(cfg *config.Config) (*cache.Cache, func()) {
	noop := func() {}

	switch cfg.CacheBackend {
	case config.BackendNone:
		return nil, noop
	case config.BackendRedis:
		rb, err := cache.NewRedisBackend(cfg.RedisAddr, "", cfg.RedisPassword, 0)
		if err == nil {
			return cache.NewWithBackend(rb), func() { rb.Close() }
		}
		log.Warn().Err(err).Msg("redis cache unavailable, using file cache")
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		return nil, noop
	}
	return c, noop
}

// loadSnapshot runs one load and fails only when need is absent.
func loadSnapshot(s *datasync.Sync, need func(datasync.Snapshot) bool, doc string) (datasync.Snapshot, error) {
	return requireDoc(s.Load(), need, doc)
}

func requireDoc(snap datasync.Snapshot, need func(datasync.Snapshot) bool, doc string) (datasync.Snapshot, error) {
	if !need(snap) {
		if snap.Err != nil {
			return snap, fmt.Errorf("no %s available: %w", doc, snap.Err)
		}
		return snap, fmt.Errorf("no %s available", doc)
	}
	return snap, nil
}
