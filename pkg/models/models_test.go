package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecordDefaults(t *testing.T) {
	r := NewRecord()
	if r.Title != "N/A" || r.Price != 0 || r.Rating != 0 || r.ReviewCount != 0 {
		t.Errorf("unexpected defaults: %+v", r)
	}
}

func TestPageOutcomeFailed(t *testing.T) {
	if (PageOutcome{Page: 1}).Failed() {
		t.Error("outcome without error should not be failed")
	}
	if !(PageOutcome{Page: 1, Err: errors.New("x")}).Failed() {
		t.Error("outcome with error should be failed")
	}
}

func TestResult(t *testing.T) {
	start := time.Now()
	r := &Result{
		Pages:          4,
		Records:        []Record{NewRecord(), NewRecord()},
		SucceededPages: 2,
		FailedPages:    []int{4, 2},
		StartedAt:      start,
	}

	if r.Total() != 2 || r.Failed() != 2 {
		t.Errorf("unexpected totals: %d records, %d failed", r.Total(), r.Failed())
	}
	if !r.Partial() {
		t.Error("expected partial result")
	}
	if r.Elapsed() != 0 {
		t.Error("unfinished result should report zero elapsed")
	}

	r.FinishedAt = start.Add(1500 * time.Millisecond)
	if r.Elapsed() != 1500*time.Millisecond {
		t.Errorf("unexpected elapsed %v", r.Elapsed())
	}

	sorted := r.SortedFailedPages()
	if sorted[0] != 2 || sorted[1] != 4 {
		t.Errorf("expected sorted pages, got %v", sorted)
	}
	if r.FailedPages[0] != 4 {
		t.Error("SortedFailedPages must not reorder the original slice")
	}
}

func TestResultNotPartial(t *testing.T) {
	allFailed := &Result{Pages: 2, FailedPages: []int{1, 2}}
	if allFailed.Partial() {
		t.Error("a run with no successful page is not partial")
	}
	noneFailed := &Result{Pages: 2, SucceededPages: 2}
	if noneFailed.Partial() {
		t.Error("a run with no failed page is not partial")
	}
}
