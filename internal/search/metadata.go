// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kpeez/neuromorphopy/pkg/types"
)

// nameColumn is the identifier column; it leads the CSV and its values are
// never cleaned.
const nameColumn = "neuron_name"

// CleanValue normalizes one metadata cell for export: bracket and quote
// noise from list-shaped values is stripped, separators collapse to
// underscores, and the result is lowercased. "[L4, 'barrel cortex']"
// becomes "l4_barrel_cortex".
func CleanValue(s string) string {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ", ", "_")
	s = strings.ReplaceAll(s, "layer ", "layer")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToLower(s)
}

// WriteMetadataCSV exports records as delimited text: one row per record,
// one column per metadata field. neuron_name comes first, the remaining
// columns are the sorted union of all record fields so sparse schemas still
// line up.
func WriteMetadataCSV(w io.Writer, neurons []types.NeuronRecord) error {
	columns := metadataColumns(neurons)
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for _, n := range neurons {
		for i, col := range columns {
			value, ok := n.String(col)
			if !ok {
				row[i] = ""
				continue
			}
			if col == nameColumn {
				row[i] = value
			} else {
				row[i] = CleanValue(value)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", n.Name(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// metadataColumns returns neuron_name followed by the sorted union of all
// other fields present across records.
func metadataColumns(neurons []types.NeuronRecord) []string {
	seen := make(map[string]bool)
	for _, n := range neurons {
		for field := range n {
			seen[field] = true
		}
	}
	delete(seen, nameColumn)

	rest := make([]string, 0, len(seen))
	for field := range seen {
		rest = append(rest, field)
	}
	sort.Strings(rest)
	return append([]string{nameColumn}, rest...)
}
