package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "artisan",
		Short: "Upload artisan work and publish a landing page",
		Long: `Artisan collects product photos, an optional voice story and contact
details from an artisan, saves them on the artisan server and renders a
landing page from the result.

Run "artisan serve" for the server and "artisan upload" for the interactive
upload flow.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newRecordCmd())
	cmd.AddCommand(newStoryCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
