// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches morphology files for a set of neurons with
// bounded concurrency, per-item failure isolation, and idempotent
// skip-if-present behavior.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kpeez/neuromorphopy/internal/api"
	"github.com/kpeez/neuromorphopy/internal/swc"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

// Ext is the file extension for downloaded morphology files.
const Ext = ".swc"

const defaultMaxConcurrency = 20

// Failure records one neuron that could not be downloaded.
type Failure struct {
	Neuron string
	Err    error
}

// Report tallies the outcome of a batch download run.
type Report struct {
	Written  int
	Skipped  int
	Failed   int
	Failures []Failure

	// Normalized counts written files whose parsed rows carried no soma
	// type and had their first row normalized. Informational only.
	Normalized int
}

// Total returns the number of neurons processed.
func (r Report) Total() int {
	return r.Written + r.Skipped + r.Failed
}

// HasFailures reports whether any neuron failed.
func (r Report) HasFailures() bool {
	return r.Failed > 0
}

// Event describes one completed download task.
type Event struct {
	Neuron string
	Status types.DownloadStatus
	Err    error

	// Normalized reports that the file was written after the parser's
	// soma normalization fired on its content.
	Normalized bool
}

// Observer receives one Event per completed task. Events are delivered from
// a dedicated goroutine through a buffered channel, so a slow observer
// never stalls the download path.
type Observer func(Event)

// Options configures a batch download run.
type Options struct {
	// MaxConcurrency caps the number of downloads in flight (default 20).
	MaxConcurrency int

	// Observer, if set, is called once per completed task.
	Observer Observer
}

// All downloads the SWC file for every named neuron into outDir. The target
// path for a neuron is outDir/<name>.swc; if it already exists the neuron
// is skipped without any network access, which makes repeated runs over the
// same directory incrementally resumable.
//
// Each task resolves the download link from the neuron's info page, fetches
// the content, and writes it to a temporary file renamed into place, so a
// crash mid-write never leaves a half-written file that a later run would
// mistake for a finished download. A task holds one semaphore permit for
// its whole resolve-fetch-write lifetime.
//
// Failures are isolated per neuron: an error is recorded in the report and
// never cancels sibling tasks. All itself only fails when the output
// directory cannot be created or ctx is cancelled; cancellation stops
// admitting new tasks and lets in-flight tasks drain.
func All(ctx context.Context, client *api.Client, names []string, outDir string, opts Options) (Report, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("creating output directory: %w", err)
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	// Buffered to the task count: result sends never block, and the
	// accumulator below is the only goroutine touching the report.
	events := make(chan Event, len(names))
	sem := make(chan struct{}, maxConcurrency)

	for _, name := range names {
		go func(name string) {
			events <- runTask(ctx, client, name, outDir, sem)
		}(name)
	}

	var report Report
	for range names {
		ev := <-events
		switch ev.Status {
		case types.StatusWritten:
			report.Written++
			if ev.Normalized {
				report.Normalized++
			}
		case types.StatusSkipped:
			report.Skipped++
		case types.StatusFailed:
			report.Failed++
			report.Failures = append(report.Failures, Failure{Neuron: ev.Neuron, Err: ev.Err})
		}
		if opts.Observer != nil {
			opts.Observer(ev)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// runTask processes one neuron and returns its terminal event.
func runTask(ctx context.Context, client *api.Client, name, outDir string, sem chan struct{}) Event {
	target := filepath.Join(outDir, name+Ext)
	if _, err := os.Stat(target); err == nil {
		return Event{Neuron: name, Status: types.StatusSkipped}
	}

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return Event{Neuron: name, Status: types.StatusFailed, Err: ctx.Err()}
	}
	defer func() { <-sem }()

	normalized, err := fetchOne(ctx, client, name, target)
	if err != nil {
		return Event{Neuron: name, Status: types.StatusFailed, Err: err}
	}
	return Event{Neuron: name, Status: types.StatusWritten, Normalized: normalized}
}

// fetchOne resolves, fetches, validates, and atomically writes one
// morphology file. Content that fails parsing or the structural invariant
// check is rejected before anything reaches disk; the file itself is
// written as fetched, not re-encoded.
func fetchOne(ctx context.Context, client *api.Client, name, target string) (normalized bool, err error) {
	swcURL, err := client.ResolveSWCURL(ctx, name)
	if err != nil {
		return false, fmt.Errorf("resolving download link: %w", err)
	}

	content, err := client.GetText(ctx, swcURL)
	if err != nil {
		return false, fmt.Errorf("fetching morphology: %w", err)
	}

	m, err := swc.Parse(content)
	if err != nil {
		return false, fmt.Errorf("validating morphology: %w", err)
	}

	if err := writeAtomic(target, content); err != nil {
		return false, err
	}
	return m.SomaNormalized, nil
}

// FetchMorphology retrieves and parses one neuron's morphology without
// touching disk.
func FetchMorphology(ctx context.Context, client *api.Client, name string) (*swc.Morphology, error) {
	swcURL, err := client.ResolveSWCURL(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolving download link: %w", err)
	}
	content, err := client.GetText(ctx, swcURL)
	if err != nil {
		return nil, fmt.Errorf("fetching morphology: %w", err)
	}
	return swc.Parse(content)
}

// writeAtomic writes content to a temp file in target's directory and
// renames it into place.
func writeAtomic(target string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
