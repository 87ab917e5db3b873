// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpeez/neuromorphopy/internal/swc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Parse local SWC files and report structural problems",
	Long: `Validate parses each given SWC file and checks its structural
invariants: seven fields per sample row and exactly one root. Files that
pass print ok with a point count; files that fail print the parse or
validation error. The command exits non-zero if any file fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed++
			continue
		}

		m, err := swc.Parse(content)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Printf("%s: ok, %d points", path, len(m.Rows))
		if m.SomaNormalized {
			fmt.Print(" (no soma row, first row normalized)")
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
