// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// FromFile loads a query from a YAML or JSON file. The file maps field
// names to value lists:
//
//	species: [mouse, rat]
//	brain_region: [neocortex]
//
// JSON query files parse through the same decoder since YAML is a superset.
func FromFile(path string) (Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	var q Query
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("query file %s contains no search fields", path)
	}
	return q, nil
}
