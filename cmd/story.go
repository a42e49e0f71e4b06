package cmd

import (
	"fmt"
	"io"

	"github.com/artisan-upload/artisan/internal/client"
	"github.com/artisan-upload/artisan/internal/landing"
	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newStoryCmd() *cobra.Command {
	var server, landingPath string

	cmd := &cobra.Command{
		Use:   "story AUDIO_FILE",
		Short: "Turn a voice recording into landing page copy",
		Long: `Sends a voice recording to the server's /process-audio-upload endpoint,
which transcribes it and writes the artisan's name, about text, product
description and keywords. The result is printed as YAML.`,
		Example: `  artisan story story.webm
  artisan story story.mp3 --landing preview.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientConfig(cmd, server)
			if err != nil {
				return err
			}

			blob, err := media.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := media.Check(blob, media.KindAudio); err != nil {
				return err
			}

			api := client.New(cfg.Client.ServerURL, cfg.Client.Timeout)
			result, err := api.ProcessAudio(cmd.Context(), blob)
			if err != nil {
				return err
			}
			if err := printStory(cmd.OutOrStdout(), result); err != nil {
				return err
			}

			if landingPath != "" {
				page := landing.Build(landing.Input{Backend: landing.FromStory(result)})
				if err := landing.WriteFile(cmd.Context(), landingPath, page); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Landing page written to %s\n", landingPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "Artisan server URL (overrides ARTISAN_SERVER_URL)")
	cmd.Flags().StringVar(&landingPath, "landing", "", "Also write a landing page preview to this path")

	return cmd
}

func printStory(w io.Writer, result *models.StoryResult) error {
	out, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}
