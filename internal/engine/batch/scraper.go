// internal/engine/batch/scraper.go
package batch

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/pkg/models"
)

// Scraper runs many searches through one engine.Searcher with bounded concurrency
type Scraper struct {
	searcher    engine.Searcher
	concurrency int
}

// New creates a new batch Scraper.
// If concurrency <= 0, it auto-tunes based on system resources.
func New(searcher engine.Searcher, concurrency int, browser bool) *Scraper {
	if concurrency <= 0 {
		concurrency = OptimalConcurrency(browser)
	}
	return &Scraper{
		searcher:    searcher,
		concurrency: concurrency,
	}
}

// Concurrency returns the number of searches run at once
func (s *Scraper) Concurrency() int {
	return s.concurrency
}

// Run searches every query and streams one result per query as it finishes.
// Results carry the query's index; the channel is closed when all are done.
// Queries not yet started when ctx is cancelled report ctx.Err().
func (s *Scraper) Run(ctx context.Context, queries []string, maxResults int) <-chan models.SearchResult {
	results := make(chan models.SearchResult, len(queries))

	go func() {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.concurrency)

		for i, q := range queries {
			if ctx.Err() != nil {
				results <- models.SearchResult{Index: i, Query: q, Error: ctx.Err()}
				continue
			}

			select {
			case <-ctx.Done():
				results <- models.SearchResult{Index: i, Query: q, Error: ctx.Err()}
				continue
			case sem <- struct{}{}: // Acquire semaphore
			}

			wg.Add(1)
			go func(i int, q string) {
				defer wg.Done()
				defer func() { <-sem }() // Release semaphore

				products, err := s.searcher.Run(ctx, q, maxResults)
				if err != nil {
					log.Debug().Err(err).Str("query", q).Msg("Batch search failed")
				}
				results <- models.SearchResult{
					Index:    i,
					Query:    q,
					Products: products,
					Error:    err,
				}
			}(i, q)
		}

		wg.Wait()
		close(results)
	}()

	return results
}

// Collect drains results into a slice ordered like the input queries
func Collect(results <-chan models.SearchResult) []models.SearchResult {
	var out []models.SearchResult
	for r := range results {
		out = append(out, r)
	}
	Sort(out)
	return out
}

// Sort orders results like the input queries
func Sort(results []models.SearchResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
}
