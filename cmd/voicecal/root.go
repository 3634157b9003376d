package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"voicecal/internal/config"
	"voicecal/internal/layout"
	appLog "voicecal/internal/log"
	"voicecal/internal/metrics"
	"voicecal/internal/store"
)

const defaultConfigPath = "./voicecal.yaml"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// app is the wiring shared by subcommands once config is loaded.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	store  *store.Store
	engine *layout.Engine
}

func NewCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "voicecal",
		Short: "voicecal lays out calendar events on a month grid",
		Long: `voicecal serves a month-view calendar: events from a local events file,
the HTTP API and subscribed ICS feeds are laid out as multi-day bars on a
6x7 grid, rendered as HTML and captured to PNG.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "config file path (created with defaults if missing)")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "", "log level (debug, info, warn, error); overrides config")

	cmd.AddCommand(
		newServeCommand(opts),
		newLayoutCommand(opts),
		newCaptureCommand(opts),
	)
	return cmd
}

// loadApp loads config, configures logging and seeds the store from the
// events file.
func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", opts.configPath, err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "timezone", cfg.Timezone)
	}

	appLog.Info("effective config",
		"config_path", opts.configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"events_file", cfg.EventsFile,
		"ics_count", len(cfg.ICS),
	)

	st := store.New()
	if cfg.EventsFile != "" {
		err := st.LoadFile(cfg.EventsFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			appLog.Warn("events file not found; starting empty", "path", cfg.EventsFile)
		case err != nil:
			return nil, err
		}
	}
	metrics.StoredEvents.Set(float64(st.Len()))

	return &app{
		cfg:    cfg,
		loc:    loc,
		store:  st,
		engine: layout.New(loc),
	}, nil
}
