// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the full search-and-download workflow.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kpeez/neuromorphopy/internal/api"
	"github.com/kpeez/neuromorphopy/internal/download"
	"github.com/kpeez/neuromorphopy/internal/query"
	"github.com/kpeez/neuromorphopy/internal/search"
	"github.com/kpeez/neuromorphopy/internal/store"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

const downloadsDir = "downloads"

// Result holds the outcome of one pipeline run.
type Result struct {
	Neurons      []types.NeuronRecord
	Report       download.Report
	MetadataPath string
}

// Run executes the whole workflow: health check, query validation, paginated
// metadata search, metadata export, and the bounded-concurrency morphology
// download into cfg.Download.OutputDir/downloads. Search failures are fatal;
// per-neuron download failures are tallied in the result's report. Status
// output goes to w.
//
// Cancelling ctx stops admitting new work and lets in-flight downloads
// drain; atomic file writes guarantee no torn morphology files survive an
// abort.
func Run(ctx context.Context, cfg types.PipelineConfig, q query.Query, metadataFilename string, w io.Writer) (Result, error) {
	searchClient := api.NewClient(cfg.Search.HTTPConfig)

	up, err := searchClient.Health(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("checking API health: %w", err)
	}
	if !up {
		return Result{}, fmt.Errorf("the NeuroMorpho API is currently down")
	}

	fmt.Fprintln(w, "validating search query...")
	if err := q.Validate(ctx, searchClient); err != nil {
		return Result{}, err
	}

	neurons, err := search.Run(ctx, searchClient, q, cfg.Search, w)
	if err != nil {
		return Result{}, fmt.Errorf("metadata search: %w", err)
	}

	result := Result{Neurons: neurons}
	if len(neurons) == 0 {
		return result, nil
	}

	if metadataFilename != "" {
		path, err := writeMetadata(cfg.Download.OutputDir, metadataFilename, neurons)
		if err != nil {
			return result, err
		}
		result.MetadataPath = path
		fmt.Fprintf(w, "saved metadata for %d neurons to %s\n", len(neurons), path)
	}

	var recorder outcomeRecorder
	var searchID int64
	if cfg.Store.Dir != "" {
		runStore, err := store.Open(cfg.Store)
		if err != nil {
			return result, err
		}
		defer runStore.Close()

		searchID, err = runStore.BeginSearch(ctx, q.Filter(), neurons)
		if err != nil {
			return result, err
		}
		recorder = runStore
	}

	names := make([]string, 0, len(neurons))
	for _, n := range neurons {
		if name := n.Name(); name != "" {
			names = append(names, name)
		}
	}

	reporter := download.NewReporter(w, len(names), 0)
	reporter.Start()
	observer := downloadObserver(ctx, w, reporter, recorder, searchID)

	downloadClient := api.NewClient(cfg.Download.HTTPConfig)
	report, err := download.All(ctx, downloadClient, names, filepath.Join(cfg.Download.OutputDir, downloadsDir), download.Options{
		MaxConcurrency: cfg.Download.MaxConcurrency,
		Observer:       observer,
	})
	reporter.Stop()
	result.Report = report
	if err != nil {
		return result, err
	}

	fmt.Fprintf(w, "download summary: %d written, %d skipped, %d failed (total: %d)\n",
		report.Written, report.Skipped, report.Failed, report.Total())
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  failed: %s (%v)\n", f.Neuron, f.Err)
	}
	return result, nil
}

// outcomeRecorder is the slice of the run store the download observer
// needs.
type outcomeRecorder interface {
	RecordOutcome(ctx context.Context, searchID int64, neuron string, status types.DownloadStatus, reason string) error
}

// downloadObserver feeds each completed task to the progress reporter and,
// when a recorder is present, persists the outcome. Outcome rows are
// best-effort bookkeeping: a store error becomes a warning line on w, never
// a failed run.
func downloadObserver(ctx context.Context, w io.Writer, reporter *download.Reporter, recorder outcomeRecorder, searchID int64) download.Observer {
	return func(ev download.Event) {
		reporter.Observe(ev)
		if recorder == nil {
			return
		}
		reason := ""
		if ev.Err != nil {
			reason = ev.Err.Error()
		}
		if err := recorder.RecordOutcome(ctx, searchID, ev.Neuron, ev.Status, reason); err != nil {
			fmt.Fprintf(w, "warning: recording outcome for %s: %v\n", ev.Neuron, err)
		}
	}
}

// writeMetadata exports the aggregated metadata table as CSV under outDir.
func writeMetadata(outDir, filename string, neurons []types.NeuronRecord) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating metadata file: %w", err)
	}
	defer f.Close()

	if err := search.WriteMetadataCSV(f, neurons); err != nil {
		return "", fmt.Errorf("writing metadata CSV: %w", err)
	}
	return path, nil
}
