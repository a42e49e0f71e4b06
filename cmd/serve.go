package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/artisan-upload/artisan/internal/config"
	"github.com/artisan-upload/artisan/internal/handlers"
	"github.com/artisan-upload/artisan/internal/storage"
	"github.com/artisan-upload/artisan/internal/story"
	"github.com/artisan-upload/artisan/internal/telemetry"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port, uploadsDir, dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the artisan server",
		Long: `Starts the artisan HTTP server.

The server accepts bulk submissions on /api/save_artisan_data, stores media
in the uploads directory and one JSON manifest per submission in the data
directory. Stored submissions are rendered at /landing/{manifest}.

When STORY_PROVIDER is set (gemini, openai or ollama), /process-audio-upload
turns a voice recording into landing page copy.`,
		Example: `  # Start server on default port 5000
  artisan serve

  # Start server on custom port with custom storage
  artisan serve --port 3000 --uploads /srv/artisan/uploads --data /srv/artisan/data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("uploads") {
				cfg.Server.UploadsDir = uploadsDir
			}
			if cmd.Flags().Changed("data") {
				cfg.Server.DataDir = dataDir
			}

			store := storage.New(cfg.Server.UploadsDir, cfg.Server.DataDir)

			stories, err := story.NewService(cfg.Story, store)
			if err != nil {
				if !errors.Is(err, story.ErrDisabled) {
					return err
				}
				slog.Info("Audio story processing disabled", "reason", err)
				stories = nil
			}

			metrics, err := telemetry.New(cmd.Context(), cfg.Telemetry, cmd.Root().Version)
			if err != nil {
				return fmt.Errorf("failed to start telemetry: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metrics.Close(shutdownCtx); err != nil {
					slog.Error("Telemetry shutdown failed", "err", err)
				}
			}()

			handler := handlers.New(store, stories, metrics, cfg.Server)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.CORS(cfg.Server.AllowedOrigins, handler.Routes()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Artisan server available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"uploads", cfg.Server.UploadsDir,
					"data", cfg.Server.DataDir)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5000", "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&uploadsDir, "uploads", "uploads", "Directory for uploaded media (overrides ARTISAN_UPLOADS_DIR)")
	cmd.Flags().StringVar(&dataDir, "data", "data", "Directory for submission manifests (overrides ARTISAN_DATA_DIR)")

	return cmd
}
