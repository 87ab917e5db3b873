// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpeez/neuromorphopy/internal/pipeline"
	"github.com/kpeez/neuromorphopy/internal/query"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <query-file>",
	Short: "Search the catalog and download matching SWC files",
	Long: `Download validates the query file against the live field vocabulary,
fetches the matching metadata, exports it as CSV, and downloads each
neuron's standardized morphology file into <output-dir>/downloads. Files
that already exist are skipped, so interrupted runs can be resumed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringP("output-dir", "o", "neurons", "directory for metadata and downloads")
	downloadCmd.Flags().StringP("metadata-filename", "m", "neuron_metadata.csv", "name of the metadata CSV file")
	downloadCmd.Flags().IntP("concurrent", "c", 0, "maximum concurrent downloads (default 20)")
	downloadCmd.Flags().String("store-dir", "", "directory for the run history database (empty disables it)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	q, err := query.FromFile(args[0])
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	metadataFilename, _ := cmd.Flags().GetString("metadata-filename")
	concurrent, _ := cmd.Flags().GetInt("concurrent")
	storeDir, _ := cmd.Flags().GetString("store-dir")

	httpCfg := httpConfig(cmd)
	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:     httpCfg,
			PageSize:       viper.GetInt("search.page_size"),
			MaxConcurrency: viper.GetInt("search.max_concurrency"),
		},
		Download: types.DownloadConfig{
			HTTPConfig:     httpCfg,
			MaxConcurrency: concurrent,
			OutputDir:      outputDir,
		},
		Store: types.StoreConfig{Dir: storeDir},
	}
	if cfg.Download.MaxConcurrency == 0 {
		cfg.Download.MaxConcurrency = viper.GetInt("download.max_concurrency")
	}

	// Ctrl-C stops admitting new downloads and drains in-flight ones.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, cfg, q, metadataFilename, os.Stdout)
	if err != nil {
		return err
	}
	if result.Report.HasFailures() {
		fmt.Fprintf(os.Stderr, "warning: %d neuron(s) failed to download\n", result.Report.Failed)
	}
	return nil
}
