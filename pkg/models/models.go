package models

import (
	"sort"
	"time"
)

// Placeholder values used when a listing field is missing or unreadable
const (
	DefaultTitle       = "N/A"
	DefaultPrice       = 0.0
	DefaultRating      = 0.0
	DefaultReviewCount = 0
)

// Record is one listing extracted from a results page.
// Every field is always set; absence is represented by the defaults above.
type Record struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// NewRecord returns a Record populated with the defaults
func NewRecord() Record {
	return Record{
		Title:       DefaultTitle,
		Price:       DefaultPrice,
		Rating:      DefaultRating,
		ReviewCount: DefaultReviewCount,
	}
}

// PageRequest identifies a single listing page to retrieve
type PageRequest struct {
	Page int    // 1-based page index
	URL  string // fully built listing URL
}

// PageOutcome is the resolved result of one page task
type PageOutcome struct {
	Page     int
	URL      string
	Records  []Record
	Err      error
	Duration time.Duration
}

// Failed reports whether the page contributed no records because of an error
func (o PageOutcome) Failed() bool {
	return o.Err != nil
}

// Result is the aggregate of every page outcome for one run
type Result struct {
	Query          string
	Pages          int
	Records        []Record
	SucceededPages int
	FailedPages    []int
	Errors         map[int]error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Total returns the number of aggregated records
func (r *Result) Total() int {
	return len(r.Records)
}

// Failed returns the number of pages that failed
func (r *Result) Failed() int {
	return len(r.FailedPages)
}

// Partial reports whether some, but not all, pages failed
func (r *Result) Partial() bool {
	return r.Failed() > 0 && r.SucceededPages > 0
}

// Elapsed returns the wall time between the first dispatch and the final outcome
func (r *Result) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SortedFailedPages returns the failed page indices in ascending order
func (r *Result) SortedFailedPages() []int {
	out := make([]int, len(r.FailedPages))
	copy(out, r.FailedPages)
	sort.Ints(out)
	return out
}
