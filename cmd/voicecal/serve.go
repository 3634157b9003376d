package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"voicecal/internal/capture"
	"voicecal/internal/ics"
	appLog "voicecal/internal/log"
	"voicecal/internal/metrics"
	"voicecal/internal/scheduler"
	"voicecal/internal/web"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		listen      string
		withCapture bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, ICS refresh schedule and events file watcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Listen = listen
			}
			return serve(cmd.Context(), a, withCapture)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&withCapture, "capture", false, "capture /calendar to the preview PNG after every refresh")
	return cmd
}

func serve(ctx context.Context, a *app, withCapture bool) error {
	if a.cfg.EventsFile != "" {
		stop, err := a.store.Watch(a.cfg.EventsFile)
		if err != nil {
			appLog.Error("events file watch disabled", err, "path", a.cfg.EventsFile)
		} else {
			defer stop()
		}
	}

	fetcher := ics.NewFetcher(a.cfg.CacheDir, &http.Client{Timeout: 30 * time.Second})
	refresher := ics.NewRefresher(a.cfg, fetcher, a.store, a.loc)

	var webRefresher web.Refresher
	if len(refresher.Sources()) > 0 {
		webRefresher = refresher
	}
	server := web.NewServer(a.cfg, a.store, a.engine, webRefresher)

	job := func(ctx context.Context) error {
		err := refresher.Refresh(ctx)
		metrics.StoredEvents.Set(float64(a.store.Len()))
		if withCapture {
			if cerr := capture.CalendarPNG(ctx, capture.OptionsFromConfig(a.cfg.Preview)); cerr != nil {
				appLog.Error("preview capture failed", cerr)
			}
		}
		return err
	}

	sched, err := scheduler.New("refresh", a.cfg.RefreshCron, job)
	if err != nil {
		return err
	}
	sched.Start(ctx)

	go func() {
		// Give the listener a moment so the first capture can reach /calendar.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		_, _ = sched.RunOnce(ctx)
	}()

	err = server.ListenAndServe(ctx)
	appLog.Info("voicecal exiting")
	return err
}
