// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs bounded-concurrency paginated metadata searches
// against the NeuroMorpho select API and aggregates the pages in order.
package search

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kpeez/neuromorphopy/internal/api"
	"github.com/kpeez/neuromorphopy/internal/query"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

const (
	defaultPageSize       = 100
	defaultMaxConcurrency = 20
)

// Run searches the catalog for all records matching q and returns them as
// one collection ordered by page index: page 0's records, then page 1's,
// regardless of which fetch finishes first.
//
// A probe request with a single-element page learns the total count; the
// page fetches then run concurrently behind a counting semaphore of
// capacity cfg.MaxConcurrency. Metadata search is all-or-nothing: the first
// page failure cancels the remaining fetches and fails the whole search; Run
// never returns a partial result. Status lines go to w.
func Run(ctx context.Context, client *api.Client, q query.Query, cfg types.SearchConfig, w io.Writer) ([]types.NeuronRecord, error) {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	filter := q.Filter()
	total, err := client.CountNeurons(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("probing result count: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(w, "no records match the query")
		return nil, nil
	}

	pageCount := (total + pageSize - 1) / pageSize
	fmt.Fprintf(w, "fetching metadata for %d records (%d pages)\n", total, pageCount)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// pages[i] receives page i's records; the final concatenation walks the
	// slice in index order, so completion order never matters.
	pages := make([][]types.NeuronRecord, pageCount)
	sem := make(chan struct{}, maxConcurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for page := 0; page < pageCount; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			records, err := client.FetchPage(ctx, filter, page, pageSize)
			if err != nil {
				fail(fmt.Errorf("fetching page %d: %w", page, err))
				return
			}
			pages[page] = records
		}(page)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neurons := make([]types.NeuronRecord, 0, total)
	for _, page := range pages {
		neurons = append(neurons, page...)
	}
	if len(neurons) != total {
		return nil, fmt.Errorf("fetch inconsistency: probe reported %d records, pages contained %d", total, len(neurons))
	}
	return neurons, nil
}
