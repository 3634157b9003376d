package main

import (
	"github.com/spf13/cobra"

	"voicecal/internal/capture"
)

func newCaptureCommand(root *rootOptions) *cobra.Command {
	var (
		url    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot a running server's /calendar page to PNG",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			opts := capture.OptionsFromConfig(a.cfg.Preview)
			if url != "" {
				opts.URL = url
			}
			if output != "" {
				opts.OutputPath = output
			}
			return capture.CalendarPNG(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page to capture (default: preview.url from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG output path (default: preview.output from config)")
	return cmd
}
