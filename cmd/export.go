package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/artisan-upload/artisan/internal/config"
	"github.com/artisan-upload/artisan/internal/export"
	"github.com/artisan-upload/artisan/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var dataDir, format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored submissions as Parquet, YAML or JSONL",
		Long: `Reads every manifest in the data directory and writes one flattened
record per submission. The format is taken from --format, or from the
output file extension when --format is not given.`,
		Example: `  artisan export --out artisans.parquet
  artisan export --format yaml --out -
  artisan export --data /srv/artisan/data --format jsonl --out artisans.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cmd.Flags().Changed("data") {
				cfg.Server.DataDir = dataDir
			}

			f := format
			if f == "" {
				f = filepath.Ext(outPath)
			}
			exportFormat, err := export.ParseFormat(f)
			if err != nil {
				return err
			}

			store := storage.New(cfg.Server.UploadsDir, cfg.Server.DataDir)
			entries, err := store.Manifests()
			if err != nil {
				return err
			}
			records := export.FromEntries(entries)

			if outPath == "-" {
				return export.Write(cmd.OutOrStdout(), exportFormat, records)
			}
			if err := export.WriteFile(outPath, exportFormat, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d submissions to %s\n", len(records), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "data", "Directory holding submission manifests (overrides ARTISAN_DATA_DIR)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "parquet, yaml or jsonl")
	cmd.Flags().StringVarP(&outPath, "out", "o", "artisans.parquet", "Output file, or - for stdout")

	return cmd
}
