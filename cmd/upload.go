package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/artisan-upload/artisan/internal/capture"
	"github.com/artisan-upload/artisan/internal/client"
	"github.com/artisan-upload/artisan/internal/collect"
	"github.com/artisan-upload/artisan/internal/config"
	"github.com/artisan-upload/artisan/internal/orchestrator"
	"github.com/artisan-upload/artisan/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// clientConfig loads configuration and applies the --server flag.
func clientConfig(cmd *cobra.Command, server string) (*config.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cmd.Flags().Changed("server") {
		cfg.Client.ServerURL = server
	}
	return cfg, nil
}

// redirectLogs sends the default logger to path while the terminal UI owns
// the screen, keeping the current level. An empty path discards logs.
// restore reinstates the previous logger.
func redirectLogs(ctx context.Context, path string) (restore func(), err error) {
	prev := slog.Default()
	level := slog.LevelInfo
	if prev.Enabled(ctx, slog.LevelDebug) {
		level = slog.LevelDebug
	}

	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() { slog.SetDefault(prev) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() {
		slog.SetDefault(prev)
		f.Close()
	}, nil
}

func newUploadCmd() *cobra.Command {
	var server, landingPath, previewDir, logFile string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Interactive upload flow",
		Long: `Walks the artisan through the upload flow in the terminal:

  1. product photos (files or folders)
  2. an optional voice story, attached as a file or recorded live
  3. contact details
  4. review and submit

Everything is sent to the server in one request. On success a landing page
is rendered from the saved submission.`,
		Example: `  # Upload to a local server
  artisan upload

  # Upload to a remote server and keep the landing page elsewhere
  artisan upload --server https://artisans.example.org --landing site/index.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientConfig(cmd, server)
			if err != nil {
				return err
			}

			api := client.New(cfg.Client.ServerURL, cfg.Client.Timeout)
			meter := capture.NewLevelMeter(40)
			deps := wizard.Deps{
				Session:     orchestrator.New(api),
				Images:      collect.NewImageCollector(previewDir),
				Contact:     collect.NewContactForm(),
				Recorder:    capture.NewRecorder(capture.NewCommandDevice(cfg.Client.RecordCommand), meter),
				Meter:       meter,
				MediaBase:   api.MediaBase(),
				LandingPath: landingPath,
			}
			deps.Wire()
			defer deps.Images.Release()

			deps.Session.OnStateChange(func(s orchestrator.State) {
				slog.Debug("Upload session state", "state", s)
			})

			restore, err := redirectLogs(cmd.Context(), logFile)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(wizard.New(cmd.Context(), deps), tea.WithContext(cmd.Context())).Run()
			restore()
			if err != nil {
				return fmt.Errorf("upload flow failed: %w", err)
			}

			if m, ok := final.(wizard.Model); ok && m.Handoff() != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", m.Handoff().Result.Filename)
				if m.LandingPath() != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Landing page written to %s\n", m.LandingPath())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "Artisan server URL (overrides ARTISAN_SERVER_URL)")
	cmd.Flags().StringVar(&landingPath, "landing", "landing.html", "Where to write the landing page")
	cmd.Flags().StringVar(&previewDir, "previews", "", "Directory for image previews (default: temporary)")
	cmd.Flags().StringVar(&logFile, "log-file", "artisan-upload.log", "Where logs go while the upload flow is on screen (empty discards them)")

	return cmd
}
