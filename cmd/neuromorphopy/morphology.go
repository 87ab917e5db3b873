// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpeez/neuromorphopy/internal/api"
	"github.com/kpeez/neuromorphopy/internal/download"
)

var morphologyCmd = &cobra.Command{
	Use:   "morphology <neuron-name>",
	Short: "Fetch and summarize one neuron's SWC morphology",
	Long: `Morphology resolves the standardized SWC file for a single neuron,
parses it, and prints a structural summary without writing anything to
disk. Useful for spot-checking a record before a bulk download.`,
	Args: cobra.ExactArgs(1),
	RunE: runMorphology,
}

func init() {
	rootCmd.AddCommand(morphologyCmd)
}

func runMorphology(cmd *cobra.Command, args []string) error {
	name := args[0]
	client := api.NewClient(httpConfig(cmd))

	m, err := download.FetchMorphology(context.Background(), client, name)
	if err != nil {
		return err
	}

	root := m.Root()
	fmt.Printf("%s: %d points\n", name, len(m.Rows))
	fmt.Printf("root: id=%d type=%d at (%g, %g, %g) radius=%g\n",
		root.ID, root.Type, root.X, root.Y, root.Z, root.Radius)
	if m.SomaNormalized {
		fmt.Println("note: no soma row present, first row normalized to soma type")
	}
	return nil
}
