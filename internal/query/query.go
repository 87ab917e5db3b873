// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds and validates NeuroMorpho search queries.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kpeez/neuromorphopy/internal/api"
)

// Query maps a search field to the set of values it accepts. Field names
// and values are only meaningful against the catalog's live vocabulary,
// which changes as archives are added; validity is checked at request time,
// not compile time.
type Query map[string][]string

// InvalidQueryError reports fields or values the live vocabulary rejects.
type InvalidQueryError struct {
	Field  string
	Values []string
}

func (e *InvalidQueryError) Error() string {
	if len(e.Values) == 0 {
		return fmt.Sprintf("invalid search field: %q", e.Field)
	}
	return fmt.Sprintf("invalid values for field %q: %s", e.Field, strings.Join(e.Values, ", "))
}

// Filter combines all fields into the single filter expression the select
// API expects: "field:v1,v2 field2:v3". Fields are emitted in sorted order
// so the same query always produces the same expression.
func (q Query) Filter() string {
	fields := make([]string, 0, len(q))
	for field := range q {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+":"+strings.Join(q[field], ","))
	}
	return strings.Join(parts, " ")
}

// Validate checks every field against the catalog's accepted field set and
// every value against that field's accepted value set. The first violation
// is returned as an InvalidQueryError.
func (q Query) Validate(ctx context.Context, client *api.Client) error {
	if len(q) == 0 {
		return fmt.Errorf("query is empty: provide at least one search field")
	}

	validFields, err := client.QueryFields(ctx)
	if err != nil {
		return fmt.Errorf("fetching query fields: %w", err)
	}

	fields := make([]string, 0, len(q))
	for field := range q {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if !validFields[field] {
			return &InvalidQueryError{Field: field}
		}
		if len(q[field]) == 0 {
			return fmt.Errorf("field %q has no values", field)
		}

		validValues, err := client.FieldValues(ctx, field)
		if err != nil {
			return fmt.Errorf("fetching values for field %q: %w", field, err)
		}
		var bad []string
		for _, v := range q[field] {
			if !validValues[v] {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			return &InvalidQueryError{Field: field, Values: bad}
		}
	}
	return nil
}
