// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared across pipeline stages.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NeuronRecord is one catalog entry as returned by the NeuroMorpho select
// API. The metadata schema varies by query, so the record is an open
// key/value mapping with typed accessors rather than a fixed struct; fields
// are validated lazily as they are accessed.
type NeuronRecord map[string]any

// Name returns the neuron_name field, the catalog's item identifier.
func (r NeuronRecord) Name() string {
	s, _ := r.String("neuron_name")
	return s
}

// String returns the named field coerced to a string. Numeric JSON values
// are formatted; missing fields and nulls report ok == false.
func (r NeuronRecord) String(field string) (value string, ok bool) {
	v, present := r[field]
	if !present || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return trimFloat(t), true
	case bool:
		return fmt.Sprintf("%t", t), true
	case []any:
		return fmt.Sprintf("%v", t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// StringList returns the named field as a list of strings. Scalar values
// are wrapped in a single-element list.
func (r NeuronRecord) StringList(field string) ([]string, bool) {
	v, present := r[field]
	if !present || v == nil {
		return nil, false
	}
	if list, isList := v.([]any); isList {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, isStr := item.(string); isStr {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out, true
	}
	if s, found := r.String(field); found {
		return []string{s}, true
	}
	return nil, false
}

// Fields returns the record's field names in sorted order.
func (r NeuronRecord) Fields() []string {
	fields := make([]string, 0, len(r))
	for k := range r {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// MarshalJSON keeps NeuronRecord serializable as a plain object so records
// round-trip through the run store unchanged.
func (r NeuronRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(r))
}

// trimFloat formats a float without a trailing ".000000" tail for values
// that are whole numbers, matching how the catalog prints IDs.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// DownloadStatus is the terminal state of one download task.
type DownloadStatus string

const (
	StatusWritten DownloadStatus = "written"
	StatusSkipped DownloadStatus = "skipped"
	StatusFailed  DownloadStatus = "failed"
)
