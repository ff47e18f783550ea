// internal/engine/batch/scraper.go
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/internal/engine/selectors"
	urlutil "github.com/law-makers/harvest/internal/utils/url"
	"github.com/law-makers/harvest/pkg/models"
)

// DefaultPageTimeout bounds a single page when Options.PageTimeout is unset
const DefaultPageTimeout = 30 * time.Second

// Options configures a Scraper
type Options struct {
	// Concurrency is the worker pool size. <= 0 auto-tunes.
	Concurrency int
	// PageTimeout is the deadline applied to each page independently.
	PageTimeout time.Duration
	// BaseURL is the listing endpoint; k and page are appended per page.
	BaseURL string
	// OnPage, if set, is called by Run for every outcome as it arrives.
	OnPage func(models.PageOutcome)
}

// Scraper fans pages out over a bounded worker pool and gathers the outcomes
type Scraper struct {
	worker *Worker
	opts   Options
}

// New creates a new batch Scraper
func New(fetcher engine.Fetcher, set *selectors.Set, opts Options) *Scraper {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	return &Scraper{
		worker: NewWorker(fetcher, set),
		opts:   opts,
	}
}

// ScrapeBatch dispatches pages 1..pages and returns a channel that yields
// exactly one outcome per page in completion order. The channel is closed
// once every page has resolved.
func (s *Scraper) ScrapeBatch(ctx context.Context, query string, pages int) <-chan models.PageOutcome {
	if pages < 0 {
		pages = 0
	}
	results := make(chan models.PageOutcome, pages)

	concurrency := EffectiveConcurrency(s.opts.Concurrency, pages)
	log.Debug().
		Str("query", query).
		Int("pages", pages).
		Int("concurrency", concurrency).
		Msg("Dispatching pages")

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(concurrency)

		for page := 1; page <= pages; page++ {
			page := page
			g.Go(func() error {
				results <- s.processPage(ctx, query, page)
				return nil
			})
		}

		// Join barrier: no outcome is sent after Wait returns.
		_ = g.Wait()
	}()

	return results
}

// processPage always returns an outcome for the page, converting a worker
// panic into a page error.
func (s *Scraper) processPage(ctx context.Context, query string, page int) (outcome models.PageOutcome) {
	start := time.Now()
	outcome.Page = page

	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("page", page).Interface("panic", r).Msg("Page worker panicked")
			outcome.Records = nil
			outcome.Err = engine.NewPageError(page, engine.ErrCodePanic,
				fmt.Sprintf("worker panic: %v", r), engine.ErrWorkerPanic)
			outcome.Duration = time.Since(start)
		}
	}()

	pageURL, err := urlutil.ListingURL(s.opts.BaseURL, query, page)
	if err != nil {
		outcome.Err = engine.NewPageError(page, engine.ErrCodeNetworkError, "invalid listing URL", err)
		return outcome
	}
	outcome.URL = pageURL

	if ctx.Err() != nil {
		outcome.Err = engine.TransportError(ctx, page, ctx.Err())
		return outcome
	}

	pageCtx, cancel := context.WithTimeout(ctx, s.opts.PageTimeout)
	defer cancel()

	outcome = s.worker.Process(pageCtx, models.PageRequest{Page: page, URL: pageURL})

	if outcome.Failed() {
		log.Warn().Err(outcome.Err).Int("page", page).Str("url", pageURL).Msg("Page failed")
	}

	return outcome
}

// Run scrapes every page and aggregates the outcomes
func (s *Scraper) Run(ctx context.Context, query string, pages int) *models.Result {
	agg := NewAggregator(query, pages)

	for outcome := range s.ScrapeBatch(ctx, query, pages) {
		agg.Add(outcome)
		if s.opts.OnPage != nil {
			s.opts.OnPage(outcome)
		}
	}

	result := agg.Result()
	log.Info().
		Str("query", query).
		Int("records", result.Total()).
		Int("failed_pages", result.Failed()).
		Dur("duration", result.Elapsed()).
		Msg("Run complete")

	return result
}
