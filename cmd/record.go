package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/artisan-upload/artisan/internal/capture"
	"github.com/artisan-upload/artisan/internal/client"
	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	var server, outPath string
	var process bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a voice story from the microphone",
		Long: `Records audio with the configured capture command (arecord by default,
override with ARTISAN_RECORD_COMMAND) until Enter is pressed, then writes
one WAV file. With --process the recording is sent to the server's story
endpoint and the generated copy is printed.`,
		Example: `  artisan record --out story.wav
  ARTISAN_RECORD_COMMAND="ffmpeg -loglevel quiet -f pulse -i default -f wav -" artisan record --process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientConfig(cmd, server)
			if err != nil {
				return err
			}

			meter := capture.NewLevelMeter(40)
			recorder := capture.NewRecorder(capture.NewCommandDevice(cfg.Client.RecordCommand), meter)
			if err := recorder.Start(cmd.Context()); err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			fmt.Fprintln(stderr, "Recording... press Enter to stop")

			stop := make(chan struct{})
			go func() {
				_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
				close(stop)
			}()

			ticker := time.NewTicker(100 * time.Millisecond)
		loop:
			for {
				select {
				case <-stop:
					break loop
				case <-cmd.Context().Done():
					break loop
				case <-ticker.C:
					fmt.Fprintf(stderr, "\r%-40s", meter.Bars())
				}
			}
			ticker.Stop()
			fmt.Fprintln(stderr)

			blob, err := recorder.Stop()
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, blob.Data, 0644); err != nil {
				return fmt.Errorf("failed to write recording: %w", err)
			}
			fmt.Fprintf(stderr, "Recording written to %s (%d KB)\n", outPath, blob.Size()/1024)

			if !process {
				return nil
			}
			api := client.New(cfg.Client.ServerURL, cfg.Client.Timeout)
			result, err := api.ProcessAudio(cmd.Context(), blob)
			if err != nil {
				return err
			}
			return printStory(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "Artisan server URL (overrides ARTISAN_SERVER_URL)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "recording.wav", "Where to write the recording")
	cmd.Flags().BoolVar(&process, "process", false, "Send the recording to the story endpoint")

	return cmd
}
