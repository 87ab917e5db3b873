// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpeez/neuromorphopy/internal/api"
	"github.com/kpeez/neuromorphopy/internal/query"
	"github.com/kpeez/neuromorphopy/internal/search"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query-file>",
	Short: "Search the catalog and export metadata without downloading",
	Long: `Search validates the query file against the live field vocabulary, runs
the paginated metadata search, and writes the aggregated metadata table as
CSV. No morphology files are downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("output-dir", "o", "neurons", "directory for the metadata CSV")
	searchCmd.Flags().StringP("metadata-filename", "m", "neuron_metadata.csv", "name of the metadata CSV file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := query.FromFile(args[0])
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	metadataFilename, _ := cmd.Flags().GetString("metadata-filename")

	ctx := context.Background()
	client := api.NewClient(httpConfig(cmd))

	fmt.Println("validating search query...")
	if err := q.Validate(ctx, client); err != nil {
		return err
	}

	cfg := types.SearchConfig{
		HTTPConfig:     httpConfig(cmd),
		PageSize:       viper.GetInt("search.page_size"),
		MaxConcurrency: viper.GetInt("search.max_concurrency"),
	}
	neurons, err := search.Run(ctx, client, q, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if len(neurons) == 0 {
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outputDir, metadataFilename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating metadata file: %w", err)
	}
	defer f.Close()

	if err := search.WriteMetadataCSV(f, neurons); err != nil {
		return err
	}
	fmt.Printf("saved metadata for %d neurons to %s\n", len(neurons), path)
	return nil
}
