// internal/engine/batch/worker.go
package batch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/internal/engine/extract"
	"github.com/law-makers/harvest/internal/engine/selectors"
	"github.com/law-makers/harvest/pkg/models"
)

// Worker runs fetch, parse and extract for a single page
type Worker struct {
	fetcher engine.Fetcher
	set     *selectors.Set
}

// NewWorker creates a Worker. Both arguments are shared read-only.
func NewWorker(fetcher engine.Fetcher, set *selectors.Set) *Worker {
	return &Worker{fetcher: fetcher, set: set}
}

// Process resolves one page. A page with no containers succeeds with no
// records; only fetch and parse failures are reported as errors.
func (w *Worker) Process(ctx context.Context, req models.PageRequest) models.PageOutcome {
	start := time.Now()
	outcome := models.PageOutcome{Page: req.Page, URL: req.URL}

	body, err := w.fetcher.Fetch(ctx, req)
	if err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		return outcome
	}

	doc, err := extract.ParseDocument(body)
	if err != nil {
		outcome.Err = engine.NewPageError(req.Page, engine.ErrCodeParseError, "failed to parse document", err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Records = extract.Extract(doc, w.set)
	outcome.Duration = time.Since(start)

	log.Debug().
		Int("page", req.Page).
		Int("records", len(outcome.Records)).
		Dur("duration", outcome.Duration).
		Msg("Page extracted")

	return outcome
}
