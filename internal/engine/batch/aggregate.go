// internal/engine/batch/aggregate.go
package batch

import (
	"time"

	"github.com/law-makers/harvest/pkg/models"
)

// Aggregator folds page outcomes into a single Result. Outcomes may arrive in
// any order; records are appended as they come and never deduplicated.
// It is not safe for concurrent use; feed it from the single consumer of the
// outcome channel.
type Aggregator struct {
	result *models.Result
}

// NewAggregator starts an aggregate for a run of pages
func NewAggregator(query string, pages int) *Aggregator {
	return &Aggregator{
		result: &models.Result{
			Query:     query,
			Pages:     pages,
			Records:   []models.Record{},
			Errors:    make(map[int]error),
			StartedAt: time.Now(),
		},
	}
}

// Add records one page outcome
func (a *Aggregator) Add(o models.PageOutcome) {
	if o.Failed() {
		a.result.FailedPages = append(a.result.FailedPages, o.Page)
		a.result.Errors[o.Page] = o.Err
		return
	}
	a.result.SucceededPages++
	a.result.Records = append(a.result.Records, o.Records...)
}

// Result stamps the finish time and returns the aggregate
func (a *Aggregator) Result() *models.Result {
	a.result.FinishedAt = time.Now()
	return a.result
}
