package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"voicecal/internal/ics"
	"voicecal/internal/model"
	"voicecal/internal/render"
)

func newLayoutCommand(root *rootOptions) *cobra.Command {
	var (
		year, month int
		asJSON      bool
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the month layout of the configured events",
		Example: `  voicecal layout                    # current month
  voicecal layout --year 2025 --month 10  # November 2025 (month is 0-based)
  voicecal layout --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			if refresh {
				if err := refreshFeeds(cmd.Context(), a); err != nil {
					return err
				}
			}

			now := time.Now().In(a.loc)
			if !cmd.Flags().Changed("year") {
				year = now.Year()
			}
			if !cmd.Flags().Changed("month") {
				month = int(now.Month()) - 1
			}

			view := a.engine.View(a.store.Snapshot(), year, month)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			_, err = fmt.Fprint(out, render.Text(view, render.Options{
				Location: a.loc,
				Today:    model.DateOf(now),
			}))
			return err
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "0-based month, may overflow (default: current)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the month view as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the configured ICS feeds first")
	return cmd
}

func refreshFeeds(ctx context.Context, a *app) error {
	fetcher := ics.NewFetcher(a.cfg.CacheDir, &http.Client{Timeout: 30 * time.Second})
	return ics.NewRefresher(a.cfg, fetcher, a.store, a.loc).Refresh(ctx)
}
