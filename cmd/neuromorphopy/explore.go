// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kpeez/neuromorphopy/internal/api"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [field]",
	Short: "List valid query fields, or the valid values for one field",
	Long: `Explore prints the catalog's live query vocabulary. With no argument it
lists the accepted field names; with a field name it lists that field's
accepted values. The vocabulary changes as archives are added, so it is
fetched fresh each time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := api.NewClient(httpConfig(cmd))

	var set map[string]bool
	var err error
	if len(args) == 1 {
		set, err = client.FieldValues(ctx, args[0])
	} else {
		set, err = client.QueryFields(ctx)
	}
	if err != nil {
		return err
	}

	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		fmt.Println(item)
	}
	return nil
}
